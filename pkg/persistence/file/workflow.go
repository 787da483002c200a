package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/persistence"
)

func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	return p.writeJSON(dirWorkflows, workflow.ID, workflow)
}

func (p *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	var workflow models.Workflow
	if err := p.readJSON(dirWorkflows, id, &workflow, persistence.ErrWorkflowNotFound); err != nil {
		return nil, err
	}

	return &workflow, nil
}

func (p *Persistence) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	dir := filepath.Join(p.root, dirWorkflows)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, err
	}

	workflows := make([]*models.Workflow, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name())) // #nosec G304 -- listed by ReadDir
		if err != nil {
			return nil, err
		}

		var workflow models.Workflow
		if err := json.Unmarshal(data, &workflow); err != nil {
			return nil, err
		}

		workflows = append(workflows, &workflow)
	}

	return workflows, nil
}

func (p *Persistence) DeleteWorkflow(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	err := os.Remove(filepath.Join(p.root, dirWorkflows, id+".json"))
	if os.IsNotExist(err) {
		return persistence.ErrWorkflowNotFound
	}

	return err
}

func (p *Persistence) SaveTool(ctx context.Context, tool *models.Tool) error {
	return p.writeJSON(dirTools, tool.ID, tool)
}

func (p *Persistence) ToolByID(ctx context.Context, id string) (*models.Tool, error) {
	var tool models.Tool
	if err := p.readJSON(dirTools, id, &tool, persistence.ErrToolNotFound); err != nil {
		return nil, err
	}

	return &tool, nil
}
