package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ctxWith(variables map[string]any) MapContext {
	return MapContext{Variables: variables}
}

func TestResolveNoPlaceholders(t *testing.T) {
	t.Parallel()

	ctx := ctxWith(map[string]any{"name": "Alice"})

	assert.Equal(t, "plain text", Resolve("plain text", ctx))
	assert.Equal(t, "", Resolve("", ctx))
	assert.Equal(t, 42, Resolve(42, ctx))
	assert.Equal(t, []any{1, 2}, Resolve([]any{1, 2}, ctx))
}

func TestResolveAllSyntaxesEquivalent(t *testing.T) {
	t.Parallel()

	ctx := ctxWith(map[string]any{"name": "Alice", "age": 30})

	templates := []string{
		"Hello {name}, you are {age} years old",
		"Hello {{name}}, you are {{age}} years old",
		"Hello ${name}, you are ${age} years old",
	}

	for _, template := range templates {
		assert.Equal(t, "Hello Alice, you are 30 years old", Resolve(template, ctx), template)
	}
}

func TestResolveMixedSyntaxesOnePass(t *testing.T) {
	t.Parallel()

	ctx := ctxWith(map[string]any{"a": "x", "b": "y", "c": "z"})

	assert.Equal(t, "x y z", Resolve("{a} {{b}} ${c}", ctx))
}

func TestResolveDottedPaths(t *testing.T) {
	t.Parallel()

	ctx := ctxWith(map[string]any{
		"step": map[string]any{"value": 42},
		"user": map[string]any{"address": map[string]any{"city": "Lisbon"}},
	})

	assert.Equal(t, "42", ResolveString("{step.value}", ctx))
	assert.Equal(t, "Lisbon", Resolve("{user.address.city}", ctx))

	// A missing nested path leaves the placeholder untouched.
	assert.Equal(t, "{step.missing.property}", Resolve("{step.missing.property}", ctxWith(map[string]any{
		"step": map[string]any{"other": "value"},
	})))
}

func TestResolveStepOutputs(t *testing.T) {
	t.Parallel()

	ctx := MapContext{
		Variables: map[string]any{},
		Steps: map[string]any{
			"fetch": map[string]any{"status": "ok", "count": float64(3)},
		},
	}

	assert.Equal(t, "ok", Resolve("{step.fetch.status}", ctx))
	assert.Equal(t, "3 items", Resolve("{step.fetch.count} items", ctx))
}

func TestResolveNullAndEmpty(t *testing.T) {
	t.Parallel()

	ctx := ctxWith(map[string]any{"nullValue": nil, "empty": ""})

	// Present-but-nil renders as "null"; absent leaves the placeholder.
	assert.Equal(t, "got null", Resolve("got {nullValue}", ctx))
	assert.Equal(t, "", Resolve("{empty}", ctx))
	assert.Equal(t, "{missing}", Resolve("{missing}", ctx))
}

func TestResolveWholeValueKeepsType(t *testing.T) {
	t.Parallel()

	items := []any{"a", "b"}
	object := map[string]any{"k": "v"}
	ctx := ctxWith(map[string]any{
		"items":  items,
		"object": object,
		"count":  5,
		"flag":   true,
	})

	assert.Equal(t, items, Resolve("{items}", ctx))
	assert.Equal(t, object, Resolve("{{object}}", ctx))
	assert.Equal(t, 5, Resolve("${count}", ctx))
	assert.Equal(t, true, Resolve("{flag}", ctx))

	// Embedded in surrounding text, values render as strings.
	assert.Equal(t, "flag=true", Resolve("flag={flag}", ctx))
}

func TestResolveWholeValueMissingLeavesTemplate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "{missing}", Resolve("{missing}", ctxWith(map[string]any{})))
}

func TestFormatScalars(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"nil", nil, "null"},
		{"string", "hi", "hi"},
		{"empty string", "", ""},
		{"true", true, "true"},
		{"false", false, "false"},
		{"zero", 0, "0"},
		{"negative", -7, "-7"},
		{"float", 3.25, "3.25"},
		{"float64 integral", float64(30), "30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Format(tt.value)
			assert.Equal(t, tt.want, got)

			// Idempotent for scalars: formatting the formatted string again
			// yields the same text.
			assert.Equal(t, got, Format(got))
		})
	}
}

func TestFormatObjectPrettyJSON(t *testing.T) {
	t.Parallel()

	got := Format(map[string]any{"name": "Alice", "age": 30})

	assert.Contains(t, got, "\n")
	assert.Contains(t, got, `"name"`)
	assert.Contains(t, got, `"age"`)
}

func TestResolveStringFormatsNonStrings(t *testing.T) {
	t.Parallel()

	ctx := ctxWith(map[string]any{"count": 5})

	require.Equal(t, "5", ResolveString("{count}", ctx))
}

func TestLookupStepNameFallsBackToVariable(t *testing.T) {
	t.Parallel()

	// A user variable literally named "step" still resolves when no step
	// output matches the second segment.
	ctx := ctxWith(map[string]any{"step": map[string]any{"value": 42}})

	value, found := Lookup("step.value", ctx)
	require.True(t, found)
	assert.Equal(t, 42, value)
}
