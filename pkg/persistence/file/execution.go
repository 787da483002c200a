package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/persistence"
)

func (p *Persistence) SaveExecution(ctx context.Context, record *models.ExecutionRecord) error {
	// Steps are stored individually under steps/<executionID>/ and merged on
	// read, so the run document stays small and step writes stay independent.
	stripped := *record
	stripped.Steps = nil

	return p.writeJSON(dirExecutions, record.ID, &stripped)
}

func (p *Persistence) SaveStep(ctx context.Context, step *models.StepRecord) error {
	if err := validateID(step.ExecutionID); err != nil {
		return err
	}

	return p.writeJSON(filepath.Join(dirSteps, step.ExecutionID), step.ID, step)
}

func (p *Persistence) ExecutionByID(ctx context.Context, id string) (*models.ExecutionRecord, error) {
	var record models.ExecutionRecord
	if err := p.readJSON(dirExecutions, id, &record, persistence.ErrExecutionNotFound); err != nil {
		return nil, err
	}

	steps, err := p.stepsByExecution(id)
	if err != nil {
		return nil, err
	}

	record.Steps = steps

	return &record, nil
}

func (p *Persistence) ExecutionsByWorkflow(ctx context.Context, workflowID, userID string) ([]*models.ExecutionRecord, error) {
	dir := filepath.Join(p.root, dirExecutions)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, err
	}

	var records []*models.ExecutionRecord

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name())) // #nosec G304 -- listed by ReadDir
		if err != nil {
			return nil, err
		}

		var record models.ExecutionRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, err
		}

		if record.WorkflowID != workflowID {
			continue
		}

		if userID != "" && record.UserID != userID {
			continue
		}

		records = append(records, &record)
	}

	// Newest first, the order the API lists runs in.
	sort.Slice(records, func(i, j int) bool {
		return records[i].StartedAt.After(records[j].StartedAt)
	})

	return records, nil
}

func (p *Persistence) stepsByExecution(executionID string) ([]*models.StepRecord, error) {
	dir := filepath.Join(p.root, dirSteps, executionID)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, err
	}

	steps := make([]*models.StepRecord, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name())) // #nosec G304 -- listed by ReadDir
		if err != nil {
			return nil, err
		}

		var step models.StepRecord
		if err := json.Unmarshal(data, &step); err != nil {
			return nil, err
		}

		steps = append(steps, &step)
	}

	sort.Slice(steps, func(i, j int) bool {
		return steps[i].StartedAt.Before(steps[j].StartedAt)
	})

	return steps, nil
}
