package models

import "time"

// ToolKind selects the execution strategy for a marketplace tool.
type ToolKind string

const (
	// ToolKindBuiltin tools dispatch to a resolver function registered in
	// the tool service.
	ToolKindBuiltin ToolKind = "builtin"
	// ToolKindFunction tools evaluate a restricted expression over the
	// validated inputs. Arbitrary code execution is not supported.
	ToolKindFunction ToolKind = "function"
	// ToolKindTemplate tools render a declarative output template.
	ToolKindTemplate ToolKind = "template"
)

// ToolInputType enumerates the declared types of tool input fields.
type ToolInputType string

const (
	ToolInputText    ToolInputType = "text"
	ToolInputNumber  ToolInputType = "number"
	ToolInputBoolean ToolInputType = "boolean"
	ToolInputList    ToolInputType = "list"
	ToolInputSelect  ToolInputType = "select"
)

// ToolInputSpec declares one field of a tool's input schema.
type ToolInputSpec struct {
	Type     ToolInputType `json:"type"`
	Required bool          `json:"required"`
	Min      *float64      `json:"min,omitempty"`
	Max      *float64      `json:"max,omitempty"`
	Step     *float64      `json:"step,omitempty"`
	Options  []string      `json:"options,omitempty"`
}

// Tool is a previously-defined marketplace tool that workflows can invoke.
type Tool struct {
	ID          string                   `json:"id"`
	Name        string                   `json:"name"       validate:"required"`
	Description string                   `json:"description"`
	Kind        ToolKind                 `json:"kind"       validate:"required"`
	Resolver    string                   `json:"resolver,omitempty"`
	Expression  string                   `json:"expression,omitempty"`
	Template    map[string]any           `json:"template,omitempty"`
	Inputs      map[string]ToolInputSpec `json:"inputs"`
	Owner       string                   `json:"owner"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

// InputMapping binds one tool input field for a tool node. Either Value is a
// literal (resolved through the variable resolver) or FromNode/FieldName
// reference a previous step's output directly.
type InputMapping struct {
	Field     string `json:"field"`
	Value     any    `json:"value,omitempty"`
	FromNode  string `json:"from_node,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}
