package models

import "time"

// WorkflowStatus represents the lifecycle state of a workflow.
type WorkflowStatus string

const (
	WorkflowStatusDraft     WorkflowStatus = "draft"
	WorkflowStatusPublished WorkflowStatus = "published"
	WorkflowStatusArchived  WorkflowStatus = "archived"
)

// Workflow is a user-authored directed graph of typed nodes. The engine
// consumes it read-only; the editor UI owns authoring.
type Workflow struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"        validate:"required,min=3"`
	Description string          `json:"description"`
	Status      WorkflowStatus  `json:"status"`
	Nodes       []*WorkflowNode `json:"nodes"       validate:"required,dive"`
	Edges       []*Edge         `json:"edges"       validate:"dive"`
	Variables   map[string]any  `json:"variables"`
	Owner       string          `json:"owner"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   *time.Time      `json:"deleted_at,omitempty"`
}

// TriggerNode returns the graph's unique entry node, or nil when the
// workflow has none.
func (w *Workflow) TriggerNode() *WorkflowNode {
	for _, node := range w.Nodes {
		if node.Kind == NodeKindTrigger {
			return node
		}
	}

	return nil
}

// Node returns the node with the given ID.
func (w *Workflow) Node(id string) (*WorkflowNode, bool) {
	for _, node := range w.Nodes {
		if node.ID == id {
			return node, true
		}
	}

	return nil, false
}

// DefaultTargets returns the targets of the node's default edges, in
// authored order.
func (w *Workflow) DefaultTargets(nodeID string) []string {
	var targets []string

	for _, edge := range w.Edges {
		if edge.Source == nodeID && edge.Branch == BranchDefault {
			targets = append(targets, edge.Target)
		}
	}

	return targets
}

// BranchTarget returns the target of the node's edge carrying the given
// branch label ("true"/"false"), or "" when no such edge is authored.
func (w *Workflow) BranchTarget(nodeID, branch string) string {
	for _, edge := range w.Edges {
		if edge.Source == nodeID && edge.Branch == branch {
			return edge.Target
		}
	}

	return ""
}
