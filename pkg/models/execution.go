package models

import (
	"time"
)

// ExecutionStatus defines the terminal and in-flight states of a run.
type ExecutionStatus string

const (
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
	ExecutionStatusCancelled ExecutionStatus = "cancelled"
)

// LogLevel classifies run-log entries.
type LogLevel string

const (
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogEntry is one entry in a run's append-only log. Every runner appends at
// least one entry when it fails.
type LogEntry struct {
	StepID    string    `json:"step_id"`
	Timestamp time.Time `json:"timestamp"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
	Data      any       `json:"data,omitempty"`
}

// Credential is an opaque token object for a third-party integration,
// returned by the credential collaborator and read-only to runners.
type Credential struct {
	IntegrationID string         `json:"integration_id"`
	Token         string         `json:"token"`
	Secret        string         `json:"secret,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// ExecutionContext is the mutable state threaded through one workflow run.
// It is owned exclusively by the executor, passed by reference to every
// runner call, and never shared across concurrent runs.
type ExecutionContext struct {
	ExecutionID string         `json:"execution_id"`
	WorkflowID  string         `json:"workflow_id"`
	UserID      string         `json:"user_id"`
	TriggerType string         `json:"trigger_type"`
	TriggerData map[string]any `json:"trigger_data,omitempty"`

	// Variables holds named user variables, mutated in place by runners.
	// Loop runners introduce temporary keys through a Scope so that sibling
	// steps see the map exactly as it was before the loop began.
	Variables map[string]any `json:"variables,omitempty"`

	// StepOutputs maps node ID to that node's last successful output.
	// Append-only in practice: later steps read but do not mutate earlier
	// entries.
	StepOutputs map[string]any `json:"step_outputs,omitempty"`

	// Connections maps integration ID to opaque credentials, populated
	// before the run starts and read-only to runners.
	Connections map[string]*Credential `json:"-"`

	StartedAt time.Time  `json:"started_at"`
	Logs      []LogEntry `json:"logs,omitempty"`
}

// NewExecutionContext builds a run context with all maps initialized.
func NewExecutionContext(executionID, workflowID, userID, triggerType string, triggerData map[string]any) *ExecutionContext {
	return &ExecutionContext{
		ExecutionID: executionID,
		WorkflowID:  workflowID,
		UserID:      userID,
		TriggerType: triggerType,
		TriggerData: triggerData,
		Variables:   make(map[string]any),
		StepOutputs: make(map[string]any),
		Connections: make(map[string]*Credential),
		StartedAt:   time.Now().UTC(),
	}
}

// Variable returns the named user variable.
func (ec *ExecutionContext) Variable(name string) (any, bool) {
	value, ok := ec.Variables[name]

	return value, ok
}

// SetVariable sets a named user variable.
func (ec *ExecutionContext) SetVariable(name string, value any) {
	if ec.Variables == nil {
		ec.Variables = make(map[string]any)
	}

	ec.Variables[name] = value
}

// StepOutput returns the recorded output of a previously executed node.
func (ec *ExecutionContext) StepOutput(nodeID string) (any, bool) {
	value, ok := ec.StepOutputs[nodeID]

	return value, ok
}

// SetStepOutput records a node's successful output.
func (ec *ExecutionContext) SetStepOutput(nodeID string, output any) {
	if ec.StepOutputs == nil {
		ec.StepOutputs = make(map[string]any)
	}

	ec.StepOutputs[nodeID] = output
}

// Connection returns the opaque credential for an integration, or nil when
// the integration is unconfigured.
func (ec *ExecutionContext) Connection(integrationID string) *Credential {
	return ec.Connections[integrationID]
}

// Log appends an entry to the run's log.
func (ec *ExecutionContext) Log(stepID string, level LogLevel, message string, data any) {
	ec.Logs = append(ec.Logs, LogEntry{
		StepID:    stepID,
		Timestamp: time.Now().UTC(),
		Level:     level,
		Message:   message,
		Data:      data,
	})
}

// Scope captures the pre-existing values of a set of variable keys so a
// bounded construct can restore them on completion. Keys absent before the
// scope began are deleted on restore rather than left behind.
type Scope struct {
	ec      *ExecutionContext
	saved   map[string]any
	present map[string]bool
}

// BeginScope saves the current values of the given keys.
func (ec *ExecutionContext) BeginScope(keys ...string) *Scope {
	scope := &Scope{
		ec:      ec,
		saved:   make(map[string]any, len(keys)),
		present: make(map[string]bool, len(keys)),
	}

	for _, key := range keys {
		value, ok := ec.Variables[key]
		scope.present[key] = ok

		if ok {
			scope.saved[key] = value
		}
	}

	return scope
}

// Restore puts every scoped key back to its pre-scope state.
func (s *Scope) Restore() {
	for key, wasPresent := range s.present {
		if wasPresent {
			s.ec.Variables[key] = s.saved[key]
		} else {
			delete(s.ec.Variables, key)
		}
	}
}

// ExecutionRecord is the durable record of one run.
type ExecutionRecord struct {
	ID          string          `json:"id"`
	WorkflowID  string          `json:"workflow_id"`
	UserID      string          `json:"user_id"`
	Status      ExecutionStatus `json:"status"`
	TriggerType string          `json:"trigger_type"`
	TriggerData map[string]any  `json:"trigger_data,omitempty"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Error       string          `json:"error,omitempty"`
	Logs        []LogEntry      `json:"logs,omitempty"`
	Steps       []*StepRecord   `json:"steps,omitempty"`
}

// StepRecord is the durable record of one node execution within a run.
type StepRecord struct {
	ID          string    `json:"id"`
	ExecutionID string    `json:"execution_id"`
	StepID      string    `json:"step_id"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	Success     bool      `json:"success"`
	Output      any       `json:"output,omitempty"`
	Error       string    `json:"error,omitempty"`
}
