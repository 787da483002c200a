// Package email defines the email transport collaborator used by action nodes.
package email

import "context"

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Transport delivers email. Delivery failure is an expected, recoverable
// condition for workflow steps; callers surface it as a soft failure rather
// than halting the run.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}
