package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/persistence"
)

// Repository mediates workflow CRUD between the API and persistence,
// enforcing struct and graph validation on every write.
type Repository struct {
	persistence persistence.Persistence
	validator   *validator.Validate
}

func NewRepository(p persistence.Persistence) *Repository {
	return &Repository{
		persistence: p,
		validator:   validator.New(),
	}
}

func (r *Repository) HealthCheck(ctx context.Context) (string, bool) {
	if r.persistence == nil {
		return "persistence layer not initialized", false
	}

	if err := r.persistence.HealthCheck(ctx); err != nil {
		return "persistence layer is unhealthy: " + err.Error(), false
	}

	return "persistence layer is healthy", true
}

func (r *Repository) FetchAll(ctx context.Context) ([]*models.Workflow, error) {
	workflows, err := r.persistence.Workflows(ctx)
	if err != nil {
		return nil, err
	}

	return workflows, nil
}

func (r *Repository) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	return r.persistence.WorkflowByID(ctx, id)
}

func (r *Repository) Create(ctx context.Context, wf *models.Workflow) (*models.Workflow, error) {
	if wf.ID == "" {
		wf.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	wf.CreatedAt = now
	wf.UpdatedAt = now

	if wf.Status == "" {
		wf.Status = models.WorkflowStatusDraft
	}

	if err := r.validate(wf); err != nil {
		return nil, err
	}

	if err := r.persistence.SaveWorkflow(ctx, wf); err != nil {
		return nil, err
	}

	return wf, nil
}

func (r *Repository) Update(ctx context.Context, id string, wf *models.Workflow) (*models.Workflow, error) {
	existing, err := r.persistence.WorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	wf.ID = id
	wf.CreatedAt = existing.CreatedAt
	wf.UpdatedAt = time.Now().UTC()

	if err := r.validate(wf); err != nil {
		return nil, err
	}

	if err := r.persistence.SaveWorkflow(ctx, wf); err != nil {
		return nil, err
	}

	return wf, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.persistence.DeleteWorkflow(ctx, id)
}

func (r *Repository) validate(wf *models.Workflow) error {
	if err := r.validator.Struct(wf); err != nil {
		return fmt.Errorf("workflow validation failed: %w", err)
	}

	if err := Validate(wf); err != nil {
		return fmt.Errorf("workflow graph validation failed: %w", err)
	}

	return nil
}
