// Package persistence provides the data storage abstraction for workflows,
// tools and execution records.
package persistence

import (
	"context"

	"github.com/flowgrid/flowgrid/pkg/models"
)

// WorkflowPersistence stores workflow definitions.
type WorkflowPersistence interface {
	Workflows(ctx context.Context) ([]*models.Workflow, error)
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
	DeleteWorkflow(ctx context.Context, id string) error
}

// ExecutionPersistence stores run and step records. It is the only shared
// mutable state between concurrent runs and must accept concurrent writes
// from independent executions.
type ExecutionPersistence interface {
	SaveExecution(ctx context.Context, record *models.ExecutionRecord) error
	SaveStep(ctx context.Context, step *models.StepRecord) error

	// ExecutionByID returns the run record with its step records attached.
	ExecutionByID(ctx context.Context, id string) (*models.ExecutionRecord, error)
	ExecutionsByWorkflow(ctx context.Context, workflowID, userID string) ([]*models.ExecutionRecord, error)
}

// ToolPersistence stores marketplace tool definitions.
type ToolPersistence interface {
	SaveTool(ctx context.Context, tool *models.Tool) error
	ToolByID(ctx context.Context, id string) (*models.Tool, error)
}

// Persistence is the full storage collaborator.
type Persistence interface {
	WorkflowPersistence
	ExecutionPersistence
	ToolPersistence

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
