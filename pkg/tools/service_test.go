package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgrid/flowgrid/pkg/models"
)

type mapStore struct {
	tools map[string]*models.Tool
}

func (m *mapStore) ToolByID(_ context.Context, id string) (*models.Tool, error) {
	tool, ok := m.tools[id]
	if !ok {
		return nil, ErrToolNotFound
	}

	return tool, nil
}

func newTestService(tools ...*models.Tool) *Service {
	store := &mapStore{tools: make(map[string]*models.Tool)}
	for _, tool := range tools {
		store.tools[tool.ID] = tool
	}

	return NewService(store)
}

func TestLookup(t *testing.T) {
	t.Parallel()

	echo := &models.Tool{ID: "echo-1", Name: "Echo", Kind: models.ToolKindBuiltin, Resolver: "echo"}
	service := newTestService(echo)

	tool, err := service.Lookup(context.Background(), "echo-1")
	require.NoError(t, err)
	assert.Equal(t, "Echo", tool.Name)

	_, err = service.Lookup(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrToolNotFound)

	_, err = service.Lookup(context.Background(), "")
	assert.ErrorIs(t, err, ErrToolNotFound)
}

func TestExecuteBuiltin(t *testing.T) {
	t.Parallel()

	tool := &models.Tool{
		ID:       "wc-1",
		Name:     "Word Count",
		Kind:     models.ToolKindBuiltin,
		Resolver: "word_count",
		Inputs: map[string]models.ToolInputSpec{
			"text": {Type: models.ToolInputText, Required: true},
		},
	}

	service := newTestService(tool)

	output, err := service.Execute(context.Background(), tool, map[string]any{"text": "one two three"})
	require.NoError(t, err)

	result := output.(map[string]any)
	assert.Equal(t, 3, result["words"])
	assert.Equal(t, 13, result["characters"])
}

func TestExecuteBuiltinUnregisteredResolver(t *testing.T) {
	t.Parallel()

	tool := &models.Tool{ID: "x", Kind: models.ToolKindBuiltin, Resolver: "does_not_exist"}

	_, err := newTestService(tool).Execute(context.Background(), tool, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does_not_exist")
}

func TestExecuteJoinBuiltin(t *testing.T) {
	t.Parallel()

	tool := &models.Tool{
		ID:       "join-1",
		Kind:     models.ToolKindBuiltin,
		Resolver: "join",
		Inputs: map[string]models.ToolInputSpec{
			"items":     {Type: models.ToolInputList, Required: true},
			"separator": {Type: models.ToolInputText},
		},
	}

	service := newTestService(tool)

	output, err := service.Execute(context.Background(), tool, map[string]any{
		"items":     "a,b,c",
		"separator": " | ",
	})
	require.NoError(t, err)
	assert.Equal(t, "a | b | c", output.(map[string]any)["joined"])
}

func TestExecuteExpression(t *testing.T) {
	t.Parallel()

	tool := &models.Tool{
		ID:         "double-1",
		Kind:       models.ToolKindFunction,
		Expression: "value * 2",
		Inputs: map[string]models.ToolInputSpec{
			"value": {Type: models.ToolInputNumber, Required: true},
		},
	}

	service := newTestService(tool)

	output, err := service.Execute(context.Background(), tool, map[string]any{"value": 21})
	require.NoError(t, err)
	assert.Equal(t, 42.0, output)

	// The compiled program is cached; a second run takes the cached path.
	output, err = service.Execute(context.Background(), tool, map[string]any{"value": 5})
	require.NoError(t, err)
	assert.Equal(t, 10.0, output)
}

func TestExecuteExpressionCompileError(t *testing.T) {
	t.Parallel()

	tool := &models.Tool{ID: "broken", Kind: models.ToolKindFunction, Expression: "value +"}

	_, err := newTestService(tool).Execute(context.Background(), tool, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not compile")
}

func TestExecuteTemplate(t *testing.T) {
	t.Parallel()

	tool := &models.Tool{
		ID:   "greet-1",
		Kind: models.ToolKindTemplate,
		Template: map[string]any{
			"greeting": "Hello {name}",
			"tags":     []any{"{name}", "welcome"},
			"count":    1,
		},
		Inputs: map[string]models.ToolInputSpec{
			"name": {Type: models.ToolInputText, Required: true},
		},
	}

	service := newTestService(tool)

	output, err := service.Execute(context.Background(), tool, map[string]any{"name": "Alice"})
	require.NoError(t, err)

	rendered := output.(map[string]any)
	assert.Equal(t, "Hello Alice", rendered["greeting"])
	assert.Equal(t, []any{"Alice", "welcome"}, rendered["tags"])
	assert.Equal(t, 1, rendered["count"])
}

func TestExecuteUnknownKind(t *testing.T) {
	t.Parallel()

	tool := &models.Tool{ID: "weird", Kind: models.ToolKind("plugin")}

	_, err := newTestService(tool).Execute(context.Background(), tool, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown kind")
}

func TestExecuteValidatesBeforeRunning(t *testing.T) {
	t.Parallel()

	tool := &models.Tool{
		ID:       "echo-1",
		Kind:     models.ToolKindBuiltin,
		Resolver: "echo",
		Inputs: map[string]models.ToolInputSpec{
			"text": {Type: models.ToolInputText, Required: true},
		},
	}

	_, err := newTestService(tool).Execute(context.Background(), tool, map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"text"`)
}
