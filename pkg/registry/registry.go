// Package registry wires node kinds to their runners.
package registry

import (
	"fmt"
	"log/slog"

	"github.com/flowgrid/flowgrid/pkg/models"
	actionnode "github.com/flowgrid/flowgrid/pkg/nodes/action"
	ainode "github.com/flowgrid/flowgrid/pkg/nodes/ai"
	conditionnode "github.com/flowgrid/flowgrid/pkg/nodes/condition"
	loopnode "github.com/flowgrid/flowgrid/pkg/nodes/loop"
	toolnode "github.com/flowgrid/flowgrid/pkg/nodes/tool"
	transformnode "github.com/flowgrid/flowgrid/pkg/nodes/transform"
	triggernode "github.com/flowgrid/flowgrid/pkg/nodes/trigger"
	"github.com/flowgrid/flowgrid/pkg/protocol"
	"github.com/flowgrid/flowgrid/pkg/providers/ai"
	"github.com/flowgrid/flowgrid/pkg/providers/email"
	"github.com/flowgrid/flowgrid/pkg/tools"
)

// Registry maps node kinds to runners. Dispatch is closed over the kind
// enum: an unknown kind is an error, never a silent generic fallback.
type Registry struct {
	logger  *slog.Logger
	runners map[models.NodeKind]protocol.Runner
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:  logger,
		runners: make(map[models.NodeKind]protocol.Runner),
	}
}

// Register adds a runner, replacing any previous runner for its kind.
func (r *Registry) Register(runner protocol.Runner) {
	r.runners[runner.Kind()] = runner
}

// RunnerFor returns the runner for a node kind.
func (r *Registry) RunnerFor(kind models.NodeKind) (protocol.Runner, error) {
	runner, ok := r.runners[kind]
	if !ok {
		return nil, fmt.Errorf("no runner registered for node kind %q", kind)
	}

	return runner, nil
}

// Kinds returns the registered kinds.
func (r *Registry) Kinds() []models.NodeKind {
	kinds := make([]models.NodeKind, 0, len(r.runners))
	for kind := range r.runners {
		kinds = append(kinds, kind)
	}

	return kinds
}

// NewDefaultRegistry registers a runner for every node kind the engine
// supports, wired to the given collaborators.
func NewDefaultRegistry(
	logger *slog.Logger,
	aiProvider ai.Provider,
	emailTransport email.Transport,
	toolService *tools.Service,
) *Registry {
	registry := NewRegistry(logger)

	for _, kind := range models.NodeKinds() {
		switch kind {
		case models.NodeKindTrigger:
			registry.Register(triggernode.NewRunner())
		case models.NodeKindCondition:
			registry.Register(conditionnode.NewRunner())
		case models.NodeKindLoop:
			registry.Register(loopnode.NewRunner())
		case models.NodeKindTransform:
			registry.Register(transformnode.NewRunner())
		case models.NodeKindAction:
			registry.Register(actionnode.NewRunner(emailTransport))
		case models.NodeKindAI:
			registry.Register(ainode.NewRunner(aiProvider))
		case models.NodeKindTool:
			registry.Register(toolnode.NewRunner(toolService))
		}
	}

	return registry
}
