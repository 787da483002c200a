package web

import "github.com/flowgrid/flowgrid/pkg/models"

type CreateWorkflowRequest struct {
	Name        string                 `json:"name"        validate:"required,min=3"`
	Description string                 `json:"description"`
	Nodes       []*models.WorkflowNode `json:"nodes"       validate:"required,dive"`
	Edges       []*models.Edge         `json:"edges"       validate:"dive"`
	Variables   map[string]any         `json:"variables"`
	Owner       string                 `json:"owner"`
}

type UpdateWorkflowRequest struct {
	Name        *string                `json:"name,omitempty"      validate:"omitempty,min=3"`
	Description *string                `json:"description,omitempty"`
	Status      *models.WorkflowStatus `json:"status,omitempty"`
	Nodes       []*models.WorkflowNode `json:"nodes,omitempty"     validate:"omitempty,dive"`
	Edges       []*models.Edge         `json:"edges,omitempty"     validate:"omitempty,dive"`
	Variables   map[string]any         `json:"variables,omitempty"`
}

type ExecuteWorkflowRequest struct {
	UserID      string         `json:"user_id"`
	TriggerData map[string]any `json:"trigger_data,omitempty"`
}
