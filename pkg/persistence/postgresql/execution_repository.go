package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/persistence"
)

// ExecutionRepository handles run and step record database operations.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

// Save inserts or updates a run record. Steps are stored separately through
// SaveStep and merged on read.
func (r *ExecutionRepository) Save(ctx context.Context, record *models.ExecutionRecord) error {
	triggerDataJSON, err := json.Marshal(record.TriggerData)
	if err != nil {
		return fmt.Errorf("failed to marshal trigger data: %w", err)
	}

	logsJSON, err := json.Marshal(record.Logs)
	if err != nil {
		return fmt.Errorf("failed to marshal logs: %w", err)
	}

	query := `
		INSERT INTO executions (id, workflow_id, user_id, status, trigger_type, trigger_data, logs, error, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			logs = EXCLUDED.logs,
			error = EXCLUDED.error,
			completed_at = EXCLUDED.completed_at
	`

	_, err = r.db.ExecContext(ctx, query,
		record.ID,
		record.WorkflowID,
		record.UserID,
		record.Status,
		record.TriggerType,
		triggerDataJSON,
		logsJSON,
		record.Error,
		record.StartedAt,
		record.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save execution: %w", err)
	}

	return nil
}

// SaveStep inserts or updates one step record.
func (r *ExecutionRepository) SaveStep(ctx context.Context, step *models.StepRecord) error {
	outputJSON, err := json.Marshal(step.Output)
	if err != nil {
		return fmt.Errorf("failed to marshal step output: %w", err)
	}

	query := `
		INSERT INTO execution_steps (id, execution_id, step_id, success, output, error, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			success = EXCLUDED.success,
			output = EXCLUDED.output,
			error = EXCLUDED.error,
			completed_at = EXCLUDED.completed_at
	`

	_, err = r.db.ExecContext(ctx, query,
		step.ID,
		step.ExecutionID,
		step.StepID,
		step.Success,
		outputJSON,
		step.Error,
		step.StartedAt,
		step.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save execution step: %w", err)
	}

	return nil
}

// GetByID returns one run record with its step records attached.
func (r *ExecutionRepository) GetByID(ctx context.Context, id string) (*models.ExecutionRecord, error) {
	query := `
		SELECT
			id
		  , workflow_id
		  , user_id
		  , status
		  , trigger_type
		  , trigger_data
		  , logs
		  , error
		  , started_at
		  , completed_at
		FROM executions
		WHERE id = $1
	`

	record, err := scanExecution(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", persistence.ErrExecutionNotFound, id)
		}

		return nil, fmt.Errorf("failed to scan execution: %w", err)
	}

	steps, err := r.stepsByExecution(ctx, id)
	if err != nil {
		return nil, err
	}

	record.Steps = steps

	return record, nil
}

// GetByWorkflow returns the run records for a workflow, newest first. An
// empty userID matches runs from any user.
func (r *ExecutionRepository) GetByWorkflow(ctx context.Context, workflowID, userID string) ([]*models.ExecutionRecord, error) {
	query := `
		SELECT
			id
		  , workflow_id
		  , user_id
		  , status
		  , trigger_type
		  , trigger_data
		  , logs
		  , error
		  , started_at
		  , completed_at
		FROM executions
		WHERE workflow_id = $1 AND ($2 = '' OR user_id = $2)
		ORDER BY started_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, workflowID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	var records []*models.ExecutionRecord

	for rows.Next() {
		record, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}

		records = append(records, record)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}

	return records, nil
}

func (r *ExecutionRepository) stepsByExecution(ctx context.Context, executionID string) ([]*models.StepRecord, error) {
	query := `
		SELECT
			id
		  , execution_id
		  , step_id
		  , success
		  , output
		  , error
		  , started_at
		  , completed_at
		FROM execution_steps
		WHERE execution_id = $1
		ORDER BY started_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query execution steps: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	var steps []*models.StepRecord

	for rows.Next() {
		var (
			step       models.StepRecord
			outputJSON []byte
		)

		err := rows.Scan(
			&step.ID,
			&step.ExecutionID,
			&step.StepID,
			&step.Success,
			&outputJSON,
			&step.Error,
			&step.StartedAt,
			&step.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution step: %w", err)
		}

		if len(outputJSON) > 0 {
			if err := json.Unmarshal(outputJSON, &step.Output); err != nil {
				return nil, fmt.Errorf("failed to unmarshal step output: %w", err)
			}
		}

		steps = append(steps, &step)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating execution steps: %w", err)
	}

	return steps, nil
}

func scanExecution(row rowScanner) (*models.ExecutionRecord, error) {
	var (
		record          models.ExecutionRecord
		triggerDataJSON []byte
		logsJSON        []byte
	)

	err := row.Scan(
		&record.ID,
		&record.WorkflowID,
		&record.UserID,
		&record.Status,
		&record.TriggerType,
		&triggerDataJSON,
		&logsJSON,
		&record.Error,
		&record.StartedAt,
		&record.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(triggerDataJSON) > 0 {
		if err := json.Unmarshal(triggerDataJSON, &record.TriggerData); err != nil {
			return nil, fmt.Errorf("failed to unmarshal trigger data: %w", err)
		}
	}

	if len(logsJSON) > 0 {
		if err := json.Unmarshal(logsJSON, &record.Logs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal logs: %w", err)
		}
	}

	return &record, nil
}
