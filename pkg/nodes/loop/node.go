// Package loop implements bounded iteration nodes: for-each, while and
// repeat. Loop-introduced variables are scoped so sibling steps running
// after the loop see the context exactly as it was before the loop began.
package loop

import (
	"context"
	"fmt"

	"github.com/flowgrid/flowgrid/pkg/conditions"
	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/resolver"
)

const (
	LoopTypeForEach = "forEach"
	LoopTypeWhile   = "while"
	LoopTypeRepeat  = "repeat"

	// DefaultMaxIterations bounds while-loops unless configured lower.
	DefaultMaxIterations = 100
	// RepeatCap is the hard ceiling on repeat counts, regardless of the
	// requested count. Hitting a cap is not an error; the loop reports the
	// iterations it actually performed.
	RepeatCap = 1000

	defaultItemVariable = "item"
	iterationVariable   = "loopIteration"
	indexVariable       = "loopIndex"
)

// Config is the loop node's typed configuration. LoopType selects the
// sub-kind; the remaining fields apply per sub-kind.
type Config struct {
	LoopType      string             `json:"loopType"`
	Source        any                `json:"source,omitempty"`
	ItemVariable  string             `json:"itemVariable,omitempty"`
	Condition     *conditions.Clause `json:"condition,omitempty"`
	MaxIterations int                `json:"maxIterations,omitempty"`
	Count         any                `json:"count,omitempty"`
}

type Runner struct{}

func NewRunner() *Runner {
	return &Runner{}
}

func (r *Runner) Kind() models.NodeKind {
	return models.NodeKindLoop
}

func (r *Runner) Execute(ctx context.Context, wf *models.Workflow, node *models.WorkflowNode, ec *models.ExecutionContext) models.NodeExecutionResult {
	var config Config
	if err := models.DecodeConfig(node.Config, &config); err != nil {
		ec.Log(node.ID, models.LogLevelError, "invalid loop config", err.Error())

		return models.Fatal(fmt.Sprintf("invalid loop config: %v", err))
	}

	switch config.LoopType {
	case LoopTypeForEach, "":
		return r.forEach(node, config, ec)
	case LoopTypeWhile:
		return r.while(node, config, ec)
	case LoopTypeRepeat:
		return r.repeat(config, ec)
	}

	ec.Log(node.ID, models.LogLevelError, "unknown loop type", config.LoopType)

	return models.Fatal(fmt.Sprintf("unknown loop type %q", config.LoopType))
}

// forEach resolves the source to an array and binds each element to the
// item variable in turn. A source that does not resolve to an array is a
// fatal error.
func (r *Runner) forEach(node *models.WorkflowNode, config Config, ec *models.ExecutionContext) models.NodeExecutionResult {
	source := resolver.Resolve(config.Source, ec)

	items, ok := source.([]any)
	if !ok {
		ec.Log(node.ID, models.LogLevelError, "loop source is not an array", fmt.Sprintf("%T", source))

		return models.Fatal("forEach source did not resolve to an array")
	}

	itemVariable := config.ItemVariable
	if itemVariable == "" {
		itemVariable = defaultItemVariable
	}

	scope := ec.BeginScope(itemVariable)
	defer scope.Restore()

	results := make([]any, 0, len(items))

	for _, item := range items {
		ec.SetVariable(itemVariable, item)
		results = append(results, item)
	}

	return models.Continue(map[string]any{
		"loopType":   LoopTypeForEach,
		"iterations": len(items),
		"results":    results,
	})
}

// while re-evaluates the condition each pass with the iteration counter
// bound, stopping at maxIterations (default 100) as a safety cap.
func (r *Runner) while(node *models.WorkflowNode, config Config, ec *models.ExecutionContext) models.NodeExecutionResult {
	if config.Condition == nil {
		ec.Log(node.ID, models.LogLevelError, "while loop missing condition", nil)

		return models.Fatal("while loop requires a condition")
	}

	maxIterations := config.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	scope := ec.BeginScope(iterationVariable)
	defer scope.Restore()

	iterations := 0
	results := make([]any, 0)

	for iterations < maxIterations {
		ec.SetVariable(iterationVariable, iterations)

		if !conditions.Evaluate(*config.Condition, ec) {
			break
		}

		results = append(results, iterations)
		iterations++
	}

	return models.Continue(map[string]any{
		"loopType":   LoopTypeWhile,
		"iterations": iterations,
		"results":    results,
	})
}

// repeat runs a fixed count, hard-capped at 1000.
func (r *Runner) repeat(config Config, ec *models.ExecutionContext) models.NodeExecutionResult {
	count := coerceCount(resolver.Resolve(config.Count, ec))
	if count > RepeatCap {
		count = RepeatCap
	}

	scope := ec.BeginScope(indexVariable)
	defer scope.Restore()

	results := make([]any, 0, count)

	for index := 0; index < count; index++ {
		ec.SetVariable(indexVariable, index)
		results = append(results, index)
	}

	return models.Continue(map[string]any{
		"loopType":   LoopTypeRepeat,
		"iterations": count,
		"results":    results,
	})
}

func coerceCount(value any) int {
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		var n float64
		if _, err := fmt.Sscanf(v, "%g", &n); err == nil {
			return int(n)
		}
	}

	return 0
}
