package workflow

import (
	"errors"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/flowgrid/flowgrid/pkg/models"
)

// definitionSchema validates the wire shape of a workflow definition before
// it is decoded into models. Semantic checks (single trigger, reachability)
// happen in Validate.
const definitionSchema = `{
	"type": "object",
	"required": ["name", "nodes"],
	"properties": {
		"name": {"type": "string", "minLength": 3},
		"description": {"type": "string"},
		"nodes": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["id", "kind"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"kind": {
						"type": "string",
						"enum": ["trigger", "action", "condition", "loop", "transform", "ai", "tool"]
					},
					"name": {"type": "string"},
					"config": {"type": "object"}
				}
			}
		},
		"edges": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["source", "target"],
				"properties": {
					"id": {"type": "string"},
					"source": {"type": "string", "minLength": 1},
					"target": {"type": "string", "minLength": 1},
					"branch": {"type": "string", "enum": ["", "true", "false"]}
				}
			}
		},
		"variables": {"type": "object"}
	}
}`

// ValidateDefinition checks a raw workflow definition document against the
// wire schema.
func ValidateDefinition(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(definitionSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("failed to validate workflow definition: %w", err)
	}

	if result.Valid() {
		return nil
	}

	var errs []error
	for _, desc := range result.Errors() {
		errs = append(errs, errors.New(desc.String()))
	}

	return fmt.Errorf("invalid workflow definition: %w", errors.Join(errs...))
}

// Validate checks the semantic graph invariants: exactly one trigger entry
// node, unique node IDs, known kinds, edges between existing nodes, and
// every node reachable from the trigger.
func Validate(wf *models.Workflow) error {
	if len(wf.Nodes) == 0 {
		return errors.New("workflow has no nodes")
	}

	seen := make(map[string]bool, len(wf.Nodes))
	triggers := 0

	for _, node := range wf.Nodes {
		if node.ID == "" {
			return errors.New("workflow contains a node without an ID")
		}

		if seen[node.ID] {
			return fmt.Errorf("duplicate node ID %q", node.ID)
		}

		seen[node.ID] = true

		if !node.Kind.Valid() {
			return fmt.Errorf("node %q has unknown kind %q", node.ID, node.Kind)
		}

		if node.Kind == models.NodeKindTrigger {
			triggers++
		}
	}

	if triggers != 1 {
		return fmt.Errorf("workflow must have exactly one trigger node, found %d", triggers)
	}

	for _, edge := range wf.Edges {
		if !seen[edge.Source] {
			return fmt.Errorf("edge references unknown source node %q", edge.Source)
		}

		if !seen[edge.Target] {
			return fmt.Errorf("edge references unknown target node %q", edge.Target)
		}
	}

	if unreachable := unreachableNodes(wf); len(unreachable) > 0 {
		return fmt.Errorf("nodes not reachable from the trigger: %v", unreachable)
	}

	return nil
}

func unreachableNodes(wf *models.Workflow) []string {
	trigger := wf.TriggerNode()
	if trigger == nil {
		return nil
	}

	reached := map[string]bool{trigger.ID: true}
	frontier := []string{trigger.ID}

	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]

		for _, edge := range wf.Edges {
			if edge.Source == current && !reached[edge.Target] {
				reached[edge.Target] = true
				frontier = append(frontier, edge.Target)
			}
		}
	}

	var unreachable []string

	for _, node := range wf.Nodes {
		if !reached[node.ID] {
			unreachable = append(unreachable, node.ID)
		}
	}

	return unreachable
}
