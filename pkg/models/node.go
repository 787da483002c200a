// Package models defines the core domain models for node-based workflow execution.
package models

// NodeKind identifies the execution semantics of a workflow node.
type NodeKind string

const (
	NodeKindTrigger   NodeKind = "trigger"
	NodeKindAction    NodeKind = "action"
	NodeKindCondition NodeKind = "condition"
	NodeKindLoop      NodeKind = "loop"
	NodeKindTransform NodeKind = "transform"
	NodeKindAI        NodeKind = "ai"
	NodeKindTool      NodeKind = "tool"
)

// NodeKinds lists every kind the engine can execute. Dispatch over kinds is
// exhaustive; there is no generic fallback runner.
func NodeKinds() []NodeKind {
	return []NodeKind{
		NodeKindTrigger,
		NodeKindAction,
		NodeKindCondition,
		NodeKindLoop,
		NodeKindTransform,
		NodeKindAI,
		NodeKindTool,
	}
}

// Valid reports whether the kind is one the engine knows how to run.
func (k NodeKind) Valid() bool {
	switch k {
	case NodeKindTrigger, NodeKindAction, NodeKindCondition,
		NodeKindLoop, NodeKindTransform, NodeKindAI, NodeKindTool:
		return true
	}

	return false
}

// WorkflowNode is a node instance in a workflow graph. Config holds the
// kind-specific parameters; each runner parses its own typed view of it.
type WorkflowNode struct {
	ID     string         `json:"id"     validate:"required"`
	Kind   NodeKind       `json:"kind"   validate:"required"`
	Name   string         `json:"name"`
	Config map[string]any `json:"config"`
}

// Edge branch labels. A condition node's outgoing edges carry "true"/"false";
// every other edge is a default edge.
const (
	BranchDefault = ""
	BranchTrue    = "true"
	BranchFalse   = "false"
)

// Edge is a directed connection between two node IDs.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
	Branch string `json:"branch,omitempty"`
}

// NodeExecutionResult is the uniform result every runner returns. Runners
// never return Go errors across the runner boundary; failures are carried
// here so the executor alone decides whether the run ends.
type NodeExecutionResult struct {
	Success        bool     `json:"success"`
	Output         any      `json:"output,omitempty"`
	Error          string   `json:"error,omitempty"`
	ShouldContinue bool     `json:"should_continue"`
	NextNodeIDs    []string `json:"next_node_ids,omitempty"`
}

// Continue builds a successful result that lets the executor proceed.
func Continue(output any) NodeExecutionResult {
	return NodeExecutionResult{Success: true, Output: output, ShouldContinue: true}
}

// ContinueTo builds a successful result that overrides default edge
// following with an explicit branch target.
func ContinueTo(output any, nextNodeIDs ...string) NodeExecutionResult {
	return NodeExecutionResult{
		Success:        true,
		Output:         output,
		ShouldContinue: true,
		NextNodeIDs:    nextNodeIDs,
	}
}

// Fatal builds a failed result that halts the run.
func Fatal(errMessage string) NodeExecutionResult {
	return NodeExecutionResult{Success: false, Error: errMessage}
}
