package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/persistence"
)

// ToolRepository handles marketplace tool database operations.
type ToolRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewToolRepository(db *sql.DB, logger *slog.Logger) *ToolRepository {
	return &ToolRepository{db: db, logger: logger}
}

// Save inserts or updates a tool, assigning an ID and timestamps when missing.
func (r *ToolRepository) Save(ctx context.Context, tool *models.Tool) error {
	now := time.Now().UTC()

	if tool.CreatedAt.IsZero() {
		tool.CreatedAt = now
	}

	tool.UpdatedAt = now

	if tool.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate tool ID: %w", err)
		}

		tool.ID = id.String()
	}

	templateJSON, err := json.Marshal(tool.Template)
	if err != nil {
		return fmt.Errorf("failed to marshal template: %w", err)
	}

	inputsJSON, err := json.Marshal(tool.Inputs)
	if err != nil {
		return fmt.Errorf("failed to marshal inputs: %w", err)
	}

	query := `
		INSERT INTO tools (id, name, description, kind, resolver, expression, template, inputs, owner, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			kind = EXCLUDED.kind,
			resolver = EXCLUDED.resolver,
			expression = EXCLUDED.expression,
			template = EXCLUDED.template,
			inputs = EXCLUDED.inputs,
			owner = EXCLUDED.owner,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		tool.ID,
		tool.Name,
		tool.Description,
		tool.Kind,
		tool.Resolver,
		tool.Expression,
		templateJSON,
		inputsJSON,
		tool.Owner,
		tool.CreatedAt,
		tool.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save tool: %w", err)
	}

	return nil
}

func (r *ToolRepository) GetByID(ctx context.Context, id string) (*models.Tool, error) {
	query := `
		SELECT
			id
		  , name
		  , description
		  , kind
		  , resolver
		  , expression
		  , template
		  , inputs
		  , owner
		  , created_at
		  , updated_at
		FROM tools
		WHERE id = $1
	`

	var (
		tool         models.Tool
		resolver     sql.NullString
		expression   sql.NullString
		templateJSON []byte
		inputsJSON   []byte
		owner        sql.NullString
	)

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&tool.ID,
		&tool.Name,
		&tool.Description,
		&tool.Kind,
		&resolver,
		&expression,
		&templateJSON,
		&inputsJSON,
		&owner,
		&tool.CreatedAt,
		&tool.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", persistence.ErrToolNotFound, id)
		}

		return nil, fmt.Errorf("failed to scan tool: %w", err)
	}

	tool.Resolver = resolver.String
	tool.Expression = expression.String
	tool.Owner = owner.String

	if len(templateJSON) > 0 {
		if err := json.Unmarshal(templateJSON, &tool.Template); err != nil {
			return nil, fmt.Errorf("failed to unmarshal template: %w", err)
		}
	}

	if err := json.Unmarshal(inputsJSON, &tool.Inputs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal inputs: %w", err)
	}

	return &tool, nil
}
