package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPTransport sends mail through a plain SMTP relay.
type SMTPTransport struct {
	addr string
	from string
	auth smtp.Auth
}

func NewSMTPTransport(addr, from string, auth smtp.Auth) *SMTPTransport {
	return &SMTPTransport{addr: addr, from: from, auth: auth}
}

func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var body strings.Builder

	fmt.Fprintf(&body, "From: %s\r\n", t.from)
	fmt.Fprintf(&body, "To: %s\r\n", msg.To)
	fmt.Fprintf(&body, "Subject: %s\r\n", msg.Subject)
	body.WriteString("\r\n")
	body.WriteString(msg.Body)

	if err := smtp.SendMail(t.addr, t.auth, t.from, []string{msg.To}, []byte(body.String())); err != nil {
		return fmt.Errorf("smtp send to %s failed: %w", msg.To, err)
	}

	return nil
}
