package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/persistence/file"
	"github.com/flowgrid/flowgrid/pkg/registry"
	"github.com/flowgrid/flowgrid/pkg/workflow"
)

func newTestApp(t *testing.T) (*fiber.App, *file.Persistence) {
	t.Helper()

	p := file.NewPersistence(t.TempDir())
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	reg := registry.NewDefaultRegistry(logger, nil, nil, nil)
	engine := workflow.NewEngine(logger, p, reg, nil)
	repository := workflow.NewRepository(p)

	app := fiber.New()
	NewAPIHandlers(repository, engine, p).Register(app)

	return app, p
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	return req
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, out))
}

func TestCreateAndGetWorkflow(t *testing.T) {
	t.Parallel()

	app, _ := newTestApp(t)

	payload := `{
		"name": "order pipeline",
		"nodes": [
			{"id": "start", "kind": "trigger"},
			{"id": "notify", "kind": "action", "config": {"actionType": "send_notification"}}
		],
		"edges": [{"id": "e1", "source": "start", "target": "notify"}]
	}`

	resp, err := app.Test(jsonRequest(http.MethodPost, "/workflows", payload))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Workflow
	decodeBody(t, resp, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.WorkflowStatusDraft, created.Status)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/workflows/"+created.ID, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateWorkflowRejectsBadDefinition(t *testing.T) {
	t.Parallel()

	app, _ := newTestApp(t)

	// Unknown node kind fails schema validation before graph checks run.
	payload := `{"name": "bad", "nodes": [{"id": "start", "kind": "cron"}]}`

	resp, err := app.Test(jsonRequest(http.MethodPost, "/workflows", payload))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetWorkflowNotFound(t *testing.T) {
	t.Parallel()

	app, _ := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/workflows/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestExecuteWorkflowEndpoint(t *testing.T) {
	t.Parallel()

	app, p := newTestApp(t)

	wf := &models.Workflow{
		ID:     "wf-1",
		Name:   "notify pipeline",
		Status: models.WorkflowStatusPublished,
		Nodes: []*models.WorkflowNode{
			{ID: "start", Kind: models.NodeKindTrigger},
			{ID: "notify", Kind: models.NodeKindAction, Config: map[string]any{
				"actionType": "send_notification",
				"message":    "hi {trigger.data.who}",
			}},
		},
		Edges: []*models.Edge{{ID: "e1", Source: "start", Target: "notify"}},
	}
	require.NoError(t, p.SaveWorkflow(context.Background(), wf))

	payload := `{"user_id": "user-1", "trigger_data": {"who": "ops"}}`

	resp, err := app.Test(jsonRequest(http.MethodPost, "/workflows/wf-1/execute", payload))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var record models.ExecutionRecord
	decodeBody(t, resp, &record)
	assert.Equal(t, models.ExecutionStatusCompleted, record.Status)
	assert.Equal(t, "manual", record.TriggerType)

	// The run record and steps are readable back through the API.
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/executions/"+record.ID, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var loaded models.ExecutionRecord
	decodeBody(t, resp, &loaded)
	assert.Len(t, loaded.Steps, 2)
}

func TestWebhookDelivery(t *testing.T) {
	t.Parallel()

	app, p := newTestApp(t)

	wf := &models.Workflow{
		ID:     "wf-hook",
		Name:   "webhook pipeline",
		Status: models.WorkflowStatusPublished,
		Nodes: []*models.WorkflowNode{
			{ID: "start", Kind: models.NodeKindTrigger},
		},
	}
	require.NoError(t, p.SaveWorkflow(context.Background(), wf))

	resp, err := app.Test(jsonRequest(http.MethodPost, "/webhooks/wf-hook", `{"event": "order.created"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var record models.ExecutionRecord
	decodeBody(t, resp, &record)
	assert.Equal(t, "webhook", record.TriggerType)
	assert.Equal(t, "order.created", record.TriggerData["event"])
}

func TestListWorkflowExecutions(t *testing.T) {
	t.Parallel()

	app, p := newTestApp(t)

	require.NoError(t, p.SaveExecution(context.Background(), &models.ExecutionRecord{
		ID:         "exec-1",
		WorkflowID: "wf-1",
		UserID:     "user-1",
		Status:     models.ExecutionStatusCompleted,
	}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/workflows/wf-1/executions?user=user-1", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Executions []*models.ExecutionRecord `json:"executions"`
	}
	decodeBody(t, resp, &body)
	assert.Len(t, body.Executions, 1)
}
