// Package tools looks up marketplace tools, validates their inputs against
// the declared schema and dispatches to one of three execution strategies.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/resolver"
)

// ErrToolNotFound is returned when no tool exists for the requested ID.
var ErrToolNotFound = errors.New("tool not found")

// Store is the tool-lookup collaborator.
type Store interface {
	ToolByID(ctx context.Context, id string) (*models.Tool, error)
}

// BuiltinFunc is a resolver function backing a builtin tool. Inputs arrive
// already validated and coerced against the tool's schema.
type BuiltinFunc func(ctx context.Context, inputs map[string]any) (any, error)

// Service executes tools. Custom tool code is a restricted expression over
// the validated inputs, never arbitrary code: expressions are pure and
// cannot perform I/O, so a hostile tool definition cannot reach outside its
// inputs.
type Service struct {
	store    Store
	builtins map[string]BuiltinFunc

	mu       sync.RWMutex
	programs map[string]*vm.Program
}

func NewService(store Store) *Service {
	s := &Service{
		store:    store,
		builtins: make(map[string]BuiltinFunc),
		programs: make(map[string]*vm.Program),
	}

	registerDefaultBuiltins(s)

	return s
}

// RegisterBuiltin adds a resolver function for builtin tools.
func (s *Service) RegisterBuiltin(name string, fn BuiltinFunc) {
	s.builtins[name] = fn
}

// Lookup fetches a tool definition by ID.
func (s *Service) Lookup(ctx context.Context, toolID string) (*models.Tool, error) {
	if toolID == "" {
		return nil, fmt.Errorf("%w: empty tool id", ErrToolNotFound)
	}

	tool, err := s.store.ToolByID(ctx, toolID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, toolID)
	}

	return tool, nil
}

// Execute validates the raw inputs and runs the tool's strategy.
func (s *Service) Execute(ctx context.Context, tool *models.Tool, rawInputs map[string]any) (any, error) {
	inputs, err := ValidateInputs(tool, rawInputs)
	if err != nil {
		return nil, err
	}

	switch tool.Kind {
	case models.ToolKindBuiltin:
		return s.executeBuiltin(ctx, tool, inputs)
	case models.ToolKindFunction:
		return s.executeExpression(tool, inputs)
	case models.ToolKindTemplate:
		return s.executeTemplate(tool, inputs)
	}

	return nil, fmt.Errorf("tool %s has unknown kind %q", tool.ID, tool.Kind)
}

func (s *Service) executeBuiltin(ctx context.Context, tool *models.Tool, inputs map[string]any) (any, error) {
	fn, ok := s.builtins[tool.Resolver]
	if !ok {
		return nil, fmt.Errorf("builtin resolver %q is not registered", tool.Resolver)
	}

	return fn(ctx, inputs)
}

// executeExpression compiles the tool's expression once and caches the
// program; inputs become the expression environment.
func (s *Service) executeExpression(tool *models.Tool, inputs map[string]any) (any, error) {
	program, err := s.compile(tool)
	if err != nil {
		return nil, err
	}

	output, err := vm.Run(program, inputs)
	if err != nil {
		return nil, fmt.Errorf("tool %s expression failed: %w", tool.ID, err)
	}

	return output, nil
}

func (s *Service) compile(tool *models.Tool) (*vm.Program, error) {
	cacheKey := tool.ID + "\x00" + tool.Expression

	s.mu.RLock()
	program, ok := s.programs[cacheKey]
	s.mu.RUnlock()

	if ok {
		return program, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if program, ok := s.programs[cacheKey]; ok {
		return program, nil
	}

	program, err := expr.Compile(tool.Expression, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("tool %s expression does not compile: %w", tool.ID, err)
	}

	s.programs[cacheKey] = program

	return program, nil
}

// executeTemplate renders the tool's declarative output template, with the
// validated inputs as the only visible variables.
func (s *Service) executeTemplate(tool *models.Tool, inputs map[string]any) (any, error) {
	if tool.Template == nil {
		return nil, fmt.Errorf("tool %s has no template", tool.ID)
	}

	ctx := resolver.MapContext{Variables: inputs}

	return renderTemplate(tool.Template, ctx), nil
}

// renderTemplate walks the template structure, resolving every string leaf.
func renderTemplate(value any, ctx resolver.Context) any {
	switch v := value.(type) {
	case map[string]any:
		rendered := make(map[string]any, len(v))
		for key, item := range v {
			rendered[key] = renderTemplate(item, ctx)
		}

		return rendered
	case []any:
		rendered := make([]any, len(v))
		for i, item := range v {
			rendered[i] = renderTemplate(item, ctx)
		}

		return rendered
	case string:
		return resolver.Resolve(v, ctx)
	}

	return value
}
