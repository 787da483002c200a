package tools

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/flowgrid/flowgrid/pkg/models"
)

// ValidateInputs coerces the raw inputs against the tool's declared schema
// and enforces numeric bounds, option membership and required fields.
// Errors identify the offending field by name.
func ValidateInputs(tool *models.Tool, raw map[string]any) (map[string]any, error) {
	validated := make(map[string]any, len(tool.Inputs))

	for field, spec := range tool.Inputs {
		value, present := raw[field]

		if !present || value == nil {
			if spec.Required {
				return nil, fmt.Errorf("required input %q is missing", field)
			}

			continue
		}

		coerced, err := coerceInput(field, spec, value)
		if err != nil {
			return nil, err
		}

		validated[field] = coerced
	}

	return validated, nil
}

func coerceInput(field string, spec models.ToolInputSpec, value any) (any, error) {
	switch spec.Type {
	case models.ToolInputNumber:
		return coerceNumber(field, spec, value)
	case models.ToolInputBoolean:
		return coerceBoolean(field, value)
	case models.ToolInputList:
		return coerceList(field, spec, value)
	case models.ToolInputSelect:
		return coerceSelect(field, spec, value)
	case models.ToolInputText, "":
		s := toText(value)
		if spec.Required && s == "" {
			return nil, fmt.Errorf("required input %q is empty", field)
		}

		return s, nil
	}

	return nil, fmt.Errorf("input %q has unknown type %q", field, spec.Type)
}

func coerceNumber(field string, spec models.ToolInputSpec, value any) (float64, error) {
	var (
		n  float64
		ok bool
	)

	switch v := value.(type) {
	case int:
		n, ok = float64(v), true
	case int64:
		n, ok = float64(v), true
	case float64:
		n, ok = v, true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		n, ok = parsed, err == nil
	}

	if !ok {
		return 0, fmt.Errorf("input %q must be a number", field)
	}

	if spec.Min != nil && n < *spec.Min {
		return 0, fmt.Errorf("input %q is below the minimum of %v", field, *spec.Min)
	}

	if spec.Max != nil && n > *spec.Max {
		return 0, fmt.Errorf("input %q is above the maximum of %v", field, *spec.Max)
	}

	return n, nil
}

func coerceBoolean(field string, value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("input %q must be a boolean", field)
		}

		return parsed, nil
	case int:
		return v != 0, nil
	case float64:
		return v != 0, nil
	}

	return false, fmt.Errorf("input %q must be a boolean", field)
}

// coerceList accepts arrays as-is and splits string values on newlines and
// commas, trimming whitespace and dropping empty entries.
func coerceList(field string, spec models.ToolInputSpec, value any) ([]any, error) {
	var items []any

	switch v := value.(type) {
	case []any:
		items = v
	case string:
		for _, part := range strings.FieldsFunc(v, func(r rune) bool {
			return r == '\n' || r == ','
		}) {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				items = append(items, trimmed)
			}
		}
	default:
		return nil, fmt.Errorf("input %q must be a list", field)
	}

	if spec.Required && len(items) == 0 {
		return nil, fmt.Errorf("required list input %q resolved to zero items", field)
	}

	return items, nil
}

func coerceSelect(field string, spec models.ToolInputSpec, value any) (string, error) {
	s := toText(value)

	for _, option := range spec.Options {
		if s == option {
			return s, nil
		}
	}

	return "", fmt.Errorf("input %q must be one of [%s]", field, strings.Join(spec.Options, ", "))
}

func toText(value any) string {
	if s, ok := value.(string); ok {
		return s
	}

	return fmt.Sprintf("%v", value)
}
