// Package web provides the HTTP surface: workflow management, the manual and
// webhook run entry points, and execution read paths.
package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/persistence"
	"github.com/flowgrid/flowgrid/pkg/workflow"
)

type APIHandlers struct {
	repository  *workflow.Repository
	engine      *workflow.Engine
	persistence persistence.Persistence
	validator   *validator.Validate
}

func NewAPIHandlers(
	repository *workflow.Repository,
	engine *workflow.Engine,
	p persistence.Persistence,
) *APIHandlers {
	return &APIHandlers{
		repository:  repository,
		engine:      engine,
		persistence: p,
		validator:   validator.New(),
	}
}

// Register mounts every route on the app.
func (h *APIHandlers) Register(app *fiber.App) {
	app.Get("/health", h.HealthCheck)

	app.Get("/workflows", h.GetWorkflows)
	app.Post("/workflows", h.CreateWorkflow)
	app.Get("/workflows/:id", h.GetWorkflow)
	app.Put("/workflows/:id", h.UpdateWorkflow)
	app.Delete("/workflows/:id", h.DeleteWorkflow)

	app.Post("/workflows/:id/execute", h.ExecuteWorkflow)
	app.Post("/webhooks/:workflowID", h.DeliverWebhook)

	app.Get("/workflows/:id/executions", h.GetWorkflowExecutions)
	app.Get("/executions/:id", h.GetExecution)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, ok := h.repository.HealthCheck(c.Context())

	status := "unhealthy"
	httpStatus := http.StatusInternalServerError

	if ok {
		status = "healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.repository.FetchAll(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"workflows": workflows})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "workflow ID is required")
	}

	wf, err := h.repository.FetchByID(c.Context(), id)
	if err != nil {
		return handleStorageError(c, err)
	}

	return c.JSON(wf)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	// Schema validation first, so authors get field-level errors before the
	// graph invariants are checked.
	if err := workflow.ValidateDefinition(c.Body()); err != nil {
		return badRequest(c, err.Error())
	}

	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.repository.Create(c.Context(), &models.Workflow{
		Name:        req.Name,
		Description: req.Description,
		Nodes:       req.Nodes,
		Edges:       req.Edges,
		Variables:   req.Variables,
		Owner:       req.Owner,
	})
	if err != nil {
		return badRequest(c, err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "workflow ID is required")
	}

	var req UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing, err := h.repository.FetchByID(c.Context(), id)
	if err != nil {
		return handleStorageError(c, err)
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}

	if req.Description != nil {
		existing.Description = *req.Description
	}

	if req.Status != nil {
		existing.Status = *req.Status
	}

	if req.Nodes != nil {
		existing.Nodes = req.Nodes
	}

	if req.Edges != nil {
		existing.Edges = req.Edges
	}

	if req.Variables != nil {
		existing.Variables = req.Variables
	}

	updated, err := h.repository.Update(c.Context(), id, existing)
	if err != nil {
		return badRequest(c, err.Error())
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "workflow ID is required")
	}

	if err := h.repository.Delete(c.Context(), id); err != nil {
		return handleStorageError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ExecuteWorkflow is the manual run entry point.
func (h *APIHandlers) ExecuteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "workflow ID is required")
	}

	var req ExecuteWorkflowRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "invalid JSON format")
		}
	}

	record, err := h.engine.ExecuteWorkflow(c.Context(), id, req.UserID, "manual", req.TriggerData)
	if err != nil {
		return handleStorageError(c, err)
	}

	return c.JSON(record)
}

// DeliverWebhook funnels an external delivery into the same run entry point
// as manual and scheduled runs; the payload becomes the trigger data.
func (h *APIHandlers) DeliverWebhook(c fiber.Ctx) error {
	workflowID := c.Params("workflowID")
	if workflowID == "" {
		return badRequest(c, "workflow ID is required")
	}

	var triggerData map[string]any
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &triggerData); err != nil {
			return badRequest(c, "webhook payload must be a JSON object")
		}
	}

	record, err := h.engine.ExecuteWorkflow(c.Context(), workflowID, "", "webhook", triggerData)
	if err != nil {
		return handleStorageError(c, err)
	}

	return c.JSON(record)
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "execution ID is required")
	}

	record, err := h.persistence.ExecutionByID(c.Context(), id)
	if err != nil {
		return handleStorageError(c, err)
	}

	return c.JSON(record)
}

func (h *APIHandlers) GetWorkflowExecutions(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "workflow ID is required")
	}

	records, err := h.persistence.ExecutionsByWorkflow(c.Context(), id, c.Query("user"))
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"executions": records})
}
