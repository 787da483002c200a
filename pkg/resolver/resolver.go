// Package resolver implements the placeholder sublanguage used by workflow
// node configuration. A single resolver serves every runner so that all node
// kinds share one set of substitution rules.
package resolver

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Context exposes the data a template can reference: flat user variables and
// the per-node step outputs.
type Context interface {
	Variable(name string) (any, bool)
	StepOutput(nodeID string) (any, bool)
}

// MapContext is a Context over plain maps, used by the tool template
// strategy and in tests.
type MapContext struct {
	Variables map[string]any
	Steps     map[string]any
}

func (c MapContext) Variable(name string) (any, bool) {
	value, ok := c.Variables[name]

	return value, ok
}

func (c MapContext) StepOutput(nodeID string) (any, bool) {
	value, ok := c.Steps[nodeID]

	return value, ok
}

// stepPrefix is the reserved first segment for step-output references:
// step.<nodeID>.<path>. A key with this prefix falls back to the variable
// map when no step output matches, so a user variable literally named
// "step" keeps working.
const stepPrefix = "step"

// The three placeholder syntaxes, matched in one pass: ${name}, {{name}}
// and {name}, each allowing a dotted path. Alternation order matters so
// that "${" and "{{" are consumed before the bare "{" form.
var placeholderPattern = regexp.MustCompile(
	`\$\{\s*([A-Za-z_][A-Za-z0-9_-]*(?:\.[A-Za-z0-9_-]+)*)\s*\}` +
		`|\{\{\s*([A-Za-z_][A-Za-z0-9_-]*(?:\.[A-Za-z0-9_-]+)*)\s*\}\}` +
		`|\{\s*([A-Za-z_][A-Za-z0-9_-]*(?:\.[A-Za-z0-9_-]+)*)\s*\}`,
)

// Resolve substitutes every placeholder in the template against the context.
// Non-string templates pass through unchanged. A template that consists of
// exactly one placeholder (a whole-value reference) resolves to the original
// typed value rather than its string form, so array and object references
// survive for runners that iterate them. Placeholders that do not resolve
// are left verbatim; this keeps template bugs visible instead of silently
// collapsing to an empty string.
func Resolve(template any, ctx Context) any {
	input, ok := template.(string)
	if !ok {
		return template
	}

	if loc := placeholderPattern.FindStringIndex(input); loc != nil && loc[0] == 0 && loc[1] == len(input) {
		value, found := Lookup(placeholderKey(input), ctx)
		if !found {
			return input
		}

		return value
	}

	return placeholderPattern.ReplaceAllStringFunc(input, func(match string) string {
		value, found := Lookup(placeholderKey(match), ctx)
		if !found {
			return match
		}

		return Format(value)
	})
}

// ResolveString is Resolve with the result always rendered as a string,
// for runners that consume text (conditions, prompts, messages).
func ResolveString(template string, ctx Context) string {
	resolved := Resolve(template, ctx)
	if s, ok := resolved.(string); ok {
		return s
	}

	return Format(resolved)
}

// Lookup resolves a dotted key against the context. Keys of the form
// step.<nodeID>.<path> read the step-output map first; everything else (and
// step.* keys with no matching node) walks the variable map.
func Lookup(key string, ctx Context) (any, bool) {
	segments := strings.Split(key, ".")

	if segments[0] == stepPrefix && len(segments) >= 3 {
		if root, ok := ctx.StepOutput(segments[1]); ok {
			return walk(root, segments[2:])
		}
	}

	root, ok := ctx.Variable(segments[0])
	if !ok {
		return nil, false
	}

	return walk(root, segments[1:])
}

// walk descends the value one path segment at a time. A nil or absent
// intermediate yields not-found rather than an error.
func walk(root any, segments []string) (any, bool) {
	current := root

	for _, segment := range segments {
		object, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = object[segment]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// placeholderKey extracts the dotted key from a matched placeholder,
// whichever of the three syntaxes it used.
func placeholderKey(match string) string {
	groups := placeholderPattern.FindStringSubmatch(match)
	for _, group := range groups[1:] {
		if group != "" {
			return group
		}
	}

	return ""
}

// Format renders a resolved value for substitution into a template string.
// nil renders as "null" (distinct from not-found, which leaves the
// placeholder untouched); numbers render in plain decimal; objects and
// arrays render as indented JSON.
func Format(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		pretty, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Sprintf("%v", v)
		}

		return string(pretty)
	}
}
