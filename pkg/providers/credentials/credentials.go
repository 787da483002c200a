// Package credentials defines the credential collaborator that supplies
// opaque integration tokens to a run before it starts.
package credentials

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/flowgrid/flowgrid/pkg/models"
)

// Store returns the credential for an integration, or nil when the
// integration is unconfigured. Absence is a recoverable condition for the
// action nodes that depend on it, never an error.
type Store interface {
	Credential(ctx context.Context, userID, integrationID string) (*models.Credential, error)
}

// StaticStore serves a fixed credential set; used in tests and for
// single-tenant deployments.
type StaticStore struct {
	creds map[string]*models.Credential
}

func NewStaticStore(creds map[string]*models.Credential) *StaticStore {
	if creds == nil {
		creds = make(map[string]*models.Credential)
	}

	return &StaticStore{creds: creds}
}

func (s *StaticStore) Credential(ctx context.Context, userID, integrationID string) (*models.Credential, error) {
	return s.creds[integrationID], nil
}

// EnvStore reads credentials from FLOWGRID_CRED_<INTEGRATION>_TOKEN /
// _SECRET environment variables.
type EnvStore struct{}

func NewEnvStore() *EnvStore {
	return &EnvStore{}
}

func (s *EnvStore) Credential(ctx context.Context, userID, integrationID string) (*models.Credential, error) {
	key := strings.ToUpper(strings.ReplaceAll(integrationID, "-", "_"))

	token, ok := os.LookupEnv(fmt.Sprintf("FLOWGRID_CRED_%s_TOKEN", key))
	if !ok {
		return nil, nil
	}

	return &models.Credential{
		IntegrationID: integrationID,
		Token:         token,
		Secret:        os.Getenv(fmt.Sprintf("FLOWGRID_CRED_%s_SECRET", key)),
	}, nil
}
