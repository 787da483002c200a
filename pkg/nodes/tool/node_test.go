package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/tools"
)

type mapStore struct {
	tools map[string]*models.Tool
}

func (m *mapStore) ToolByID(_ context.Context, id string) (*models.Tool, error) {
	tool, ok := m.tools[id]
	if !ok {
		return nil, tools.ErrToolNotFound
	}

	return tool, nil
}

func newService(defs ...*models.Tool) *tools.Service {
	store := &mapStore{tools: make(map[string]*models.Tool)}
	for _, def := range defs {
		store.tools[def.ID] = def
	}

	return tools.NewService(store)
}

func execute(t *testing.T, service *tools.Service, ec *models.ExecutionContext, config map[string]any) models.NodeExecutionResult {
	t.Helper()

	node := &models.WorkflowNode{ID: "tool-1", Kind: models.NodeKindTool, Config: config}

	return NewRunner(service).Execute(context.Background(), &models.Workflow{}, node, ec)
}

func wordCountTool() *models.Tool {
	return &models.Tool{
		ID:       "wc-1",
		Name:     "Word Count",
		Kind:     models.ToolKindBuiltin,
		Resolver: "word_count",
		Inputs: map[string]models.ToolInputSpec{
			"text": {Type: models.ToolInputText, Required: true},
		},
	}
}

func TestExecuteToolWithResolvedInputs(t *testing.T) {
	t.Parallel()

	ec := models.NewExecutionContext("exec-1", "wf-1", "user-1", "manual", nil)
	ec.SetVariable("message", "one two three")

	result := execute(t, newService(wordCountTool()), ec, map[string]any{
		"toolId": "wc-1",
		"inputMappings": []any{
			map[string]any{"field": "text", "value": "{message}"},
		},
	})

	require.True(t, result.Success)

	output := result.Output.(map[string]any)
	assert.Equal(t, "wc-1", output["tool_id"])
	assert.Equal(t, "Word Count", output["tool"])
	assert.Equal(t, 3, output["result"].(map[string]any)["words"])
}

func TestExecuteToolWithStepOutputInput(t *testing.T) {
	t.Parallel()

	ec := models.NewExecutionContext("exec-1", "wf-1", "user-1", "manual", nil)
	ec.SetStepOutput("fetch", map[string]any{"body": map[string]any{"text": "hello world"}})

	result := execute(t, newService(wordCountTool()), ec, map[string]any{
		"toolId": "wc-1",
		"inputMappings": []any{
			map[string]any{"field": "text", "from_node": "fetch", "field_name": "body.text"},
		},
	})

	require.True(t, result.Success)
	assert.Equal(t, 2, result.Output.(map[string]any)["result"].(map[string]any)["words"])
}

func TestMissingToolIDIsFatal(t *testing.T) {
	t.Parallel()

	ec := models.NewExecutionContext("exec-1", "wf-1", "user-1", "manual", nil)

	result := execute(t, newService(), ec, map[string]any{})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "tool id")
}

func TestUnknownToolIsFatal(t *testing.T) {
	t.Parallel()

	ec := models.NewExecutionContext("exec-1", "wf-1", "user-1", "manual", nil)

	result := execute(t, newService(), ec, map[string]any{"toolId": "ghost"})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "ghost")
}

func TestValidationFailureIsFatal(t *testing.T) {
	t.Parallel()

	ec := models.NewExecutionContext("exec-1", "wf-1", "user-1", "manual", nil)

	result := execute(t, newService(wordCountTool()), ec, map[string]any{"toolId": "wc-1"})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, `"text"`)
}
