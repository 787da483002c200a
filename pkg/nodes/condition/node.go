// Package condition implements the branching node: an ordered clause list
// combined under AND/OR, routing execution to the true or false edge.
package condition

import (
	"context"
	"fmt"

	"github.com/flowgrid/flowgrid/pkg/conditions"
	"github.com/flowgrid/flowgrid/pkg/models"
)

// Config is the condition node's typed configuration.
type Config struct {
	Conditions []conditions.Clause   `json:"conditions"`
	Operator   conditions.Combinator `json:"operator"`
}

type Runner struct{}

func NewRunner() *Runner {
	return &Runner{}
}

func (r *Runner) Kind() models.NodeKind {
	return models.NodeKindCondition
}

// Execute evaluates the clause list and, when the matching branch edge is
// authored, overrides default edge following with its target. A condition
// node always lets the run continue; branching is its only effect.
func (r *Runner) Execute(ctx context.Context, wf *models.Workflow, node *models.WorkflowNode, ec *models.ExecutionContext) models.NodeExecutionResult {
	var config Config
	if err := models.DecodeConfig(node.Config, &config); err != nil {
		ec.Log(node.ID, models.LogLevelError, "invalid condition config", err.Error())

		return models.Fatal(fmt.Sprintf("invalid condition config: %v", err))
	}

	// AND over zero clauses is vacuously true; OR over zero is false.
	met := conditions.EvaluateAll(config.Conditions, config.Operator, ec)

	output := map[string]any{
		"conditionMet": met,
		"operator":     config.Operator,
		"clauses":      len(config.Conditions),
	}

	branch := models.BranchFalse
	if met {
		branch = models.BranchTrue
	}

	if target := wf.BranchTarget(node.ID, branch); target != "" {
		return models.ContinueTo(output, target)
	}

	// No branch edge authored; the executor falls back to the default edge.
	return models.Continue(output)
}
