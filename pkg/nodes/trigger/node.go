// Package trigger implements the workflow entry node.
package trigger

import (
	"context"

	"github.com/flowgrid/flowgrid/pkg/models"
)

// Runner executes the graph's unique entry node. The executor invokes it
// first and exactly once per run.
type Runner struct{}

func NewRunner() *Runner {
	return &Runner{}
}

func (r *Runner) Kind() models.NodeKind {
	return models.NodeKindTrigger
}

// Execute copies the run's trigger payload into the "trigger" variable so
// later nodes can reference it through the resolver.
func (r *Runner) Execute(ctx context.Context, wf *models.Workflow, node *models.WorkflowNode, ec *models.ExecutionContext) models.NodeExecutionResult {
	ec.SetVariable("trigger", map[string]any{
		"type":      ec.TriggerType,
		"data":      ec.TriggerData,
		"timestamp": ec.StartedAt,
	})

	return models.Continue(map[string]any{
		"trigger_type": ec.TriggerType,
		"triggered_at": ec.StartedAt,
		"data":         ec.TriggerData,
	})
}
