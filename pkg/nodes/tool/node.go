// Package tool implements nodes that invoke previously-defined marketplace
// tools through the tool service.
package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/resolver"
	"github.com/flowgrid/flowgrid/pkg/tools"
)

// Config is the tool node's typed configuration.
type Config struct {
	ToolID        string                `json:"toolId"`
	InputMappings []models.InputMapping `json:"inputMappings,omitempty"`
}

type Runner struct {
	service *tools.Service
}

func NewRunner(service *tools.Service) *Runner {
	return &Runner{service: service}
}

func (r *Runner) Kind() models.NodeKind {
	return models.NodeKindTool
}

// Execute looks the tool up, assembles its inputs from the mapping list and
// runs it. Lookup, validation and execution failures are all fatal for the
// node.
func (r *Runner) Execute(ctx context.Context, wf *models.Workflow, node *models.WorkflowNode, ec *models.ExecutionContext) models.NodeExecutionResult {
	var config Config
	if err := models.DecodeConfig(node.Config, &config); err != nil {
		ec.Log(node.ID, models.LogLevelError, "invalid tool config", err.Error())

		return models.Fatal(fmt.Sprintf("invalid tool config: %v", err))
	}

	if config.ToolID == "" {
		ec.Log(node.ID, models.LogLevelError, "tool node missing tool id", nil)

		return models.Fatal("tool node requires a tool id")
	}

	toolDef, err := r.service.Lookup(ctx, config.ToolID)
	if err != nil {
		ec.Log(node.ID, models.LogLevelError, "tool lookup failed", err.Error())

		return models.Fatal(err.Error())
	}

	inputs := make(map[string]any, len(config.InputMappings))

	for _, mapping := range config.InputMappings {
		if mapping.FromNode != "" {
			inputs[mapping.Field] = stepField(ec, mapping.FromNode, mapping.FieldName)

			continue
		}

		inputs[mapping.Field] = resolver.Resolve(mapping.Value, ec)
	}

	output, err := r.service.Execute(ctx, toolDef, inputs)
	if err != nil {
		ec.Log(node.ID, models.LogLevelError, "tool execution failed", err.Error())

		return models.Fatal(err.Error())
	}

	return models.Continue(map[string]any{
		"tool_id": toolDef.ID,
		"tool":    toolDef.Name,
		"result":  output,
	})
}

// stepField reads a field from a prior step's output, walking a dotted
// field name when the output is an object.
func stepField(ec *models.ExecutionContext, fromNode, fieldName string) any {
	output, ok := ec.StepOutput(fromNode)
	if !ok {
		return nil
	}

	if fieldName == "" {
		return output
	}

	current := output

	for _, segment := range strings.Split(fieldName, ".") {
		object, ok := current.(map[string]any)
		if !ok {
			return nil
		}

		current = object[segment]
	}

	return current
}
