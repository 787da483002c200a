// Package file implements persistence on the local file system, one JSON
// document per entity. Used for development and tests.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/flowgrid/flowgrid/pkg/persistence"
)

const (
	dirWorkflows  = "workflows"
	dirExecutions = "executions"
	dirSteps      = "steps"
	dirTools      = "tools"
)

// Persistence stores every entity as a JSON file under a root directory.
type Persistence struct {
	root string
}

func NewPersistence(root string) *Persistence {
	return &Persistence{root: root}
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	return os.MkdirAll(p.root, 0750)
}

func (p *Persistence) Close(ctx context.Context) error {
	return nil
}

// validateID rejects identifiers that could escape the storage root.
func validateID(id string) error {
	if id == "" {
		return errors.New("id cannot be empty")
	}

	if strings.Contains(id, "..") || strings.ContainsAny(id, `/\`) {
		return errors.New("id contains invalid characters")
	}

	return nil
}

func (p *Persistence) writeJSON(dir, id string, entity any) error {
	if err := validateID(id); err != nil {
		return err
	}

	fullDir := filepath.Join(p.root, dir)
	if err := os.MkdirAll(fullDir, 0750); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", dir, err)
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal %s/%s: %w", dir, id, err)
	}

	if err := os.WriteFile(filepath.Join(fullDir, id+".json"), data, 0600); err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", dir, id, err)
	}

	return nil
}

func (p *Persistence) readJSON(dir, id string, out any, notFound error) error {
	if err := validateID(id); err != nil {
		return err
	}

	data, err := os.ReadFile(filepath.Join(p.root, dir, id+".json")) // #nosec G304 -- id is validated
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", notFound, id)
		}

		return fmt.Errorf("failed to read %s/%s: %w", dir, id, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s/%s: %w", dir, id, err)
	}

	return nil
}

var _ persistence.Persistence = (*Persistence)(nil)
