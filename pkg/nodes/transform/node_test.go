package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgrid/flowgrid/pkg/models"
)

func newContext(variables map[string]any) *models.ExecutionContext {
	ec := models.NewExecutionContext("exec-1", "wf-1", "user-1", "manual", nil)
	for name, value := range variables {
		ec.SetVariable(name, value)
	}

	return ec
}

func execute(t *testing.T, ec *models.ExecutionContext, config map[string]any) models.NodeExecutionResult {
	t.Helper()

	node := &models.WorkflowNode{ID: "transform-1", Kind: models.NodeKindTransform, Config: config}

	return NewRunner().Execute(context.Background(), &models.Workflow{}, node, ec)
}

func output(t *testing.T, result models.NodeExecutionResult) map[string]any {
	t.Helper()

	require.True(t, result.Success)

	out, ok := result.Output.(map[string]any)
	require.True(t, ok)

	return out
}

func TestMapAppliesTemplatePerItem(t *testing.T) {
	t.Parallel()

	ec := newContext(map[string]any{
		"orders": []any{
			map[string]any{"id": "A", "total": 10},
			map[string]any{"id": "B", "total": 25},
		},
		"item": "outer",
	})

	result := execute(t, ec, map[string]any{
		"transformType": "map",
		"source":        "{orders}",
		"template":      "order {item.id}: {item.total}",
	})

	out := output(t, result)
	assert.Equal(t, 2, out["count"])
	assert.Equal(t, []any{"order A: 10", "order B: 25"}, out["result"])

	// The item variable is put back after the pass.
	value, ok := ec.Variable("item")
	require.True(t, ok)
	assert.Equal(t, "outer", value)
}

func TestMapKeepsTemplateTypes(t *testing.T) {
	t.Parallel()

	ec := newContext(map[string]any{"numbers": []any{1, 2, 3}})

	result := execute(t, ec, map[string]any{
		"transformType": "map",
		"source":        "{numbers}",
		"template":      "{item}",
	})

	assert.Equal(t, []any{1, 2, 3}, output(t, result)["result"])
}

func TestFilterByCondition(t *testing.T) {
	t.Parallel()

	ec := newContext(map[string]any{
		"orders": []any{
			map[string]any{"id": "A", "total": 10},
			map[string]any{"id": "B", "total": 25},
			map[string]any{"id": "C", "total": 3},
		},
	})

	result := execute(t, ec, map[string]any{
		"transformType": "filter",
		"source":        "{orders}",
		"condition": map[string]any{
			"field":    "{item.total}",
			"operator": "greater_than",
			"value":    5,
		},
	})

	out := output(t, result)
	assert.Equal(t, 2, out["count"])

	kept := out["result"].([]any)
	require.Len(t, kept, 2)
	assert.Equal(t, "A", kept[0].(map[string]any)["id"])
	assert.Equal(t, "B", kept[1].(map[string]any)["id"])
}

func TestFilterWithoutConditionKeepsEverything(t *testing.T) {
	t.Parallel()

	ec := newContext(map[string]any{"items": []any{"a", "b"}})

	result := execute(t, ec, map[string]any{
		"transformType": "filter",
		"source":        "{items}",
	})

	assert.Equal(t, 2, output(t, result)["count"])
}

func TestSortByField(t *testing.T) {
	t.Parallel()

	ec := newContext(map[string]any{
		"orders": []any{
			map[string]any{"id": "B", "total": 25},
			map[string]any{"id": "C", "total": 3},
			map[string]any{"id": "A", "total": 10},
		},
	})

	result := execute(t, ec, map[string]any{
		"transformType": "sort",
		"source":        "{orders}",
		"field":         "total",
	})

	sorted := output(t, result)["result"].([]any)
	require.Len(t, sorted, 3)
	assert.Equal(t, "C", sorted[0].(map[string]any)["id"])
	assert.Equal(t, "A", sorted[1].(map[string]any)["id"])
	assert.Equal(t, "B", sorted[2].(map[string]any)["id"])
}

func TestSortDescending(t *testing.T) {
	t.Parallel()

	ec := newContext(map[string]any{"numbers": []any{1, 3, 2}})

	result := execute(t, ec, map[string]any{
		"transformType": "sort",
		"source":        "{numbers}",
		"order":         "desc",
	})

	assert.Equal(t, []any{3, 2, 1}, output(t, result)["result"])
}

func TestAggregateOperations(t *testing.T) {
	t.Parallel()

	items := []any{
		map[string]any{"total": 10},
		map[string]any{"total": 25},
		map[string]any{"total": 3},
		map[string]any{"note": "no total"},
	}

	tests := []struct {
		operation string
		want      any
	}{
		{"count", 4},
		{"sum", 38.0},
		{"average", 38.0 / 3},
		{"min", 3.0},
		{"max", 25.0},
	}

	for _, tt := range tests {
		t.Run(tt.operation, func(t *testing.T) {
			t.Parallel()

			ec := newContext(map[string]any{"orders": items})

			result := execute(t, ec, map[string]any{
				"transformType": "aggregate",
				"source":        "{orders}",
				"operation":     tt.operation,
				"field":         "total",
			})

			assert.Equal(t, tt.want, output(t, result)["result"])
		})
	}
}

func TestAggregateUnknownOperationIsSoft(t *testing.T) {
	t.Parallel()

	ec := newContext(map[string]any{"items": []any{1}})

	result := execute(t, ec, map[string]any{
		"transformType": "aggregate",
		"source":        "{items}",
		"operation":     "median",
	})

	out := output(t, result)
	assert.Contains(t, out["error"], "median")
}

func TestNonArraySourceIsSoftFailure(t *testing.T) {
	t.Parallel()

	ec := newContext(map[string]any{"items": "not an array"})

	for _, transformType := range []string{"map", "filter", "sort", "aggregate"} {
		result := execute(t, ec, map[string]any{
			"transformType": transformType,
			"source":        "{items}",
		})

		require.True(t, result.Success, transformType)
		require.True(t, result.ShouldContinue, transformType)

		out := result.Output.(map[string]any)
		assert.Contains(t, out["error"], "array", transformType)
	}
}

func TestFormatJSON(t *testing.T) {
	t.Parallel()

	ec := newContext(map[string]any{"payload": map[string]any{"name": "Alice"}})

	result := execute(t, ec, map[string]any{
		"transformType": "format",
		"source":        "{payload}",
		"format":        "json",
	})

	formatted := output(t, result)["result"].(string)
	assert.Contains(t, formatted, `"name": "Alice"`)
}

func TestFormatCSVHeadersFromFirstElement(t *testing.T) {
	t.Parallel()

	ec := newContext(map[string]any{
		"rows": []any{
			map[string]any{"name": "Alice", "age": 30},
			map[string]any{"name": "Bob", "age": 41},
		},
	})

	result := execute(t, ec, map[string]any{
		"transformType": "format",
		"source":        "{rows}",
		"format":        "csv",
	})

	formatted := output(t, result)["result"].(string)
	assert.Equal(t, "age,name\n30,Alice\n41,Bob\n", formatted)
}

func TestFormatCase(t *testing.T) {
	t.Parallel()

	ec := newContext(map[string]any{"word": "Hello"})

	upper := execute(t, ec, map[string]any{
		"transformType": "format",
		"source":        "{word}",
		"format":        "uppercase",
	})
	assert.Equal(t, "HELLO", output(t, upper)["result"])

	lower := execute(t, ec, map[string]any{
		"transformType": "format",
		"source":        "{word}",
		"format":        "lowercase",
	})
	assert.Equal(t, "hello", output(t, lower)["result"])
}

func TestFormatUnknownIsSoft(t *testing.T) {
	t.Parallel()

	ec := newContext(map[string]any{"word": "x"})

	result := execute(t, ec, map[string]any{
		"transformType": "format",
		"source":        "{word}",
		"format":        "yaml",
	})

	assert.Contains(t, output(t, result)["error"], "yaml")
}

func TestUnknownTransformTypeIsFatal(t *testing.T) {
	t.Parallel()

	result := execute(t, newContext(nil), map[string]any{"transformType": "reverse"})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "reverse")
}
