// Package transform implements data transformation nodes: map, filter,
// sort, aggregate and format over a resolved source value.
package transform

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/flowgrid/flowgrid/pkg/conditions"
	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/resolver"
)

const (
	TransformMap       = "map"
	TransformFilter    = "filter"
	TransformSort      = "sort"
	TransformAggregate = "aggregate"
	TransformFormat    = "format"

	itemVariable = "item"
)

// Config is the transform node's typed configuration.
type Config struct {
	TransformType string             `json:"transformType"`
	Source        any                `json:"source,omitempty"`
	Template      any                `json:"template,omitempty"`
	Condition     *conditions.Clause `json:"condition,omitempty"`
	Field         string             `json:"field,omitempty"`
	Order         string             `json:"order,omitempty"`
	Operation     string             `json:"operation,omitempty"`
	Format        string             `json:"format,omitempty"`
}

type Runner struct{}

func NewRunner() *Runner {
	return &Runner{}
}

func (r *Runner) Kind() models.NodeKind {
	return models.NodeKindTransform
}

// Execute applies the configured transformation. A non-array source for the
// array operations is a soft failure: the node succeeds with a structured
// {error} output the workflow author can branch on, and the run continues.
func (r *Runner) Execute(ctx context.Context, wf *models.Workflow, node *models.WorkflowNode, ec *models.ExecutionContext) models.NodeExecutionResult {
	var config Config
	if err := models.DecodeConfig(node.Config, &config); err != nil {
		ec.Log(node.ID, models.LogLevelError, "invalid transform config", err.Error())

		return models.Fatal(fmt.Sprintf("invalid transform config: %v", err))
	}

	source := resolver.Resolve(config.Source, ec)

	switch config.TransformType {
	case TransformMap:
		return r.withArray(node, source, ec, func(items []any) models.NodeExecutionResult {
			return r.mapItems(items, config, ec)
		})
	case TransformFilter:
		return r.withArray(node, source, ec, func(items []any) models.NodeExecutionResult {
			return r.filterItems(items, config, ec)
		})
	case TransformSort:
		return r.withArray(node, source, ec, func(items []any) models.NodeExecutionResult {
			return r.sortItems(items, config)
		})
	case TransformAggregate:
		return r.withArray(node, source, ec, func(items []any) models.NodeExecutionResult {
			return r.aggregateItems(items, config)
		})
	case TransformFormat:
		return r.formatValue(node, source, config, ec)
	}

	ec.Log(node.ID, models.LogLevelError, "unknown transform type", config.TransformType)

	return models.Fatal(fmt.Sprintf("unknown transform type %q", config.TransformType))
}

func (r *Runner) withArray(node *models.WorkflowNode, source any, ec *models.ExecutionContext, apply func([]any) models.NodeExecutionResult) models.NodeExecutionResult {
	items, ok := source.([]any)
	if !ok {
		ec.Log(node.ID, models.LogLevelWarn, "transform source is not an array", fmt.Sprintf("%T", source))

		return models.Continue(map[string]any{
			"error": "transform source did not resolve to an array",
		})
	}

	return apply(items)
}

// mapItems applies the per-item template to each element, binding the
// element to the item variable for the duration of the pass.
func (r *Runner) mapItems(items []any, config Config, ec *models.ExecutionContext) models.NodeExecutionResult {
	scope := ec.BeginScope(itemVariable)
	defer scope.Restore()

	mapped := make([]any, 0, len(items))

	for _, item := range items {
		ec.SetVariable(itemVariable, item)
		mapped = append(mapped, resolver.Resolve(config.Template, ec))
	}

	return models.Continue(map[string]any{
		"transformType": TransformMap,
		"count":         len(mapped),
		"result":        mapped,
	})
}

func (r *Runner) filterItems(items []any, config Config, ec *models.ExecutionContext) models.NodeExecutionResult {
	scope := ec.BeginScope(itemVariable)
	defer scope.Restore()

	kept := make([]any, 0, len(items))

	for _, item := range items {
		ec.SetVariable(itemVariable, item)

		if config.Condition == nil || conditions.Evaluate(*config.Condition, ec) {
			kept = append(kept, item)
		}
	}

	return models.Continue(map[string]any{
		"transformType": TransformFilter,
		"count":         len(kept),
		"result":        kept,
	})
}

// sortItems stably sorts by the named field, ascending unless order is
// "desc". Elements without the field sort before those with it.
func (r *Runner) sortItems(items []any, config Config) models.NodeExecutionResult {
	sorted := make([]any, len(items))
	copy(sorted, items)

	descending := strings.EqualFold(config.Order, "desc")

	sort.SliceStable(sorted, func(i, j int) bool {
		cmp := compareValues(fieldOf(sorted[i], config.Field), fieldOf(sorted[j], config.Field))
		if descending {
			return cmp > 0
		}

		return cmp < 0
	})

	return models.Continue(map[string]any{
		"transformType": TransformSort,
		"count":         len(sorted),
		"result":        sorted,
	})
}

func (r *Runner) aggregateItems(items []any, config Config) models.NodeExecutionResult {
	var result any

	switch config.Operation {
	case "count":
		result = len(items)
	case "sum", "average", "min", "max":
		numbers := make([]float64, 0, len(items))

		for _, item := range items {
			if n, ok := numericField(item, config.Field); ok {
				numbers = append(numbers, n)
			}
		}

		result = reduce(config.Operation, numbers)
	default:
		return models.Continue(map[string]any{
			"error": fmt.Sprintf("unknown aggregate operation %q", config.Operation),
		})
	}

	return models.Continue(map[string]any{
		"transformType": TransformAggregate,
		"operation":     config.Operation,
		"result":        result,
	})
}

// formatValue serializes the source to JSON or CSV, or case-folds a string
// source.
func (r *Runner) formatValue(node *models.WorkflowNode, source any, config Config, ec *models.ExecutionContext) models.NodeExecutionResult {
	var (
		formatted string
		err       error
	)

	switch strings.ToLower(config.Format) {
	case "json", "":
		var raw []byte

		raw, err = json.MarshalIndent(source, "", "  ")
		formatted = string(raw)
	case "csv":
		formatted, err = toCSV(source)
	case "uppercase":
		formatted = strings.ToUpper(resolver.Format(source))
	case "lowercase":
		formatted = strings.ToLower(resolver.Format(source))
	default:
		err = fmt.Errorf("unknown format %q", config.Format)
	}

	if err != nil {
		ec.Log(node.ID, models.LogLevelWarn, "format transform failed", err.Error())

		return models.Continue(map[string]any{"error": err.Error()})
	}

	return models.Continue(map[string]any{
		"transformType": TransformFormat,
		"format":        config.Format,
		"result":        formatted,
	})
}

// toCSV renders an array of objects, deriving headers from the first
// element's own keys.
func toCSV(source any) (string, error) {
	items, ok := source.([]any)
	if !ok {
		return "", fmt.Errorf("csv format requires an array source")
	}

	if len(items) == 0 {
		return "", nil
	}

	first, ok := items[0].(map[string]any)
	if !ok {
		return "", fmt.Errorf("csv format requires an array of objects")
	}

	headers := make([]string, 0, len(first))
	for key := range first {
		headers = append(headers, key)
	}

	sort.Strings(headers)

	var builder strings.Builder

	writer := csv.NewWriter(&builder)
	if err := writer.Write(headers); err != nil {
		return "", err
	}

	for _, item := range items {
		row := make([]string, len(headers))

		object, _ := item.(map[string]any)
		for i, header := range headers {
			row[i] = resolver.Format(object[header])
		}

		if err := writer.Write(row); err != nil {
			return "", err
		}
	}

	writer.Flush()

	return builder.String(), writer.Error()
}

func fieldOf(item any, field string) any {
	object, ok := item.(map[string]any)
	if !ok {
		return item
	}

	return object[field]
}

func numericField(item any, field string) (float64, bool) {
	switch v := fieldOf(item, field).(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}

	return 0, false
}

func compareValues(left, right any) int {
	ln, lok := numericValue(left)
	rn, rok := numericValue(right)

	if lok && rok {
		switch {
		case ln < rn:
			return -1
		case ln > rn:
			return 1
		default:
			return 0
		}
	}

	return strings.Compare(resolver.Format(left), resolver.Format(right))
}

func numericValue(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}

	return 0, false
}

func reduce(operation string, numbers []float64) any {
	if len(numbers) == 0 {
		return 0
	}

	switch operation {
	case "sum", "average":
		total := 0.0
		for _, n := range numbers {
			total += n
		}

		if operation == "average" {
			return total / float64(len(numbers))
		}

		return total
	case "min":
		minimum := numbers[0]
		for _, n := range numbers[1:] {
			if n < minimum {
				minimum = n
			}
		}

		return minimum
	case "max":
		maximum := numbers[0]
		for _, n := range numbers[1:] {
			if n > maximum {
				maximum = n
			}
		}

		return maximum
	}

	return nil
}
