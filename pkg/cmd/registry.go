package cmd

import (
	"log/slog"
	"net"
	"net/smtp"
	"os"

	"github.com/flowgrid/flowgrid/pkg/persistence"
	"github.com/flowgrid/flowgrid/pkg/providers/ai"
	"github.com/flowgrid/flowgrid/pkg/providers/email"
	"github.com/flowgrid/flowgrid/pkg/registry"
	"github.com/flowgrid/flowgrid/pkg/tools"
)

// NewRegistry wires the default runner registry with collaborators built
// from the environment. Unconfigured collaborators stay nil; the runners
// that need them report a fatal node result at execution time.
func NewRegistry(logger *slog.Logger, p persistence.Persistence) *registry.Registry {
	return registry.NewDefaultRegistry(
		logger,
		newAIProvider(),
		newEmailTransport(),
		tools.NewService(p),
	)
}

func newAIProvider() ai.Provider {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil
	}

	return ai.NewOpenAIProvider(apiKey, os.Getenv("OPENAI_MODEL"))
}

func newEmailTransport() email.Transport {
	addr := os.Getenv("SMTP_ADDR")
	from := os.Getenv("SMTP_FROM")

	if addr == "" || from == "" {
		return nil
	}

	var auth smtp.Auth

	if user := os.Getenv("SMTP_USER"); user != "" {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}

		auth = smtp.PlainAuth("", user, os.Getenv("SMTP_PASSWORD"), host)
	}

	return email.NewSMTPTransport(addr, from, auth)
}
