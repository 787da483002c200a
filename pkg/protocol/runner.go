// Package protocol defines the contracts between the executor and node runners.
package protocol

import (
	"context"

	"github.com/flowgrid/flowgrid/pkg/models"
)

// Runner implements one node kind's execution semantics.
//
// Execute must never panic or return a Go error across this boundary: any
// internal failure is converted into a NodeExecutionResult with Success
// false. The executor alone decides whether a fatal result ends the run.
// The workflow is read-only; the execution context is mutated in place.
type Runner interface {
	Kind() models.NodeKind
	Execute(ctx context.Context, wf *models.Workflow, node *models.WorkflowNode, ec *models.ExecutionContext) models.NodeExecutionResult
}
