package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/persistence/file"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewScheduler(logger, file.NewPersistence(t.TempDir()), nil)
}

func saveScheduled(t *testing.T, s *Scheduler, id, schedule string, status models.WorkflowStatus) {
	t.Helper()

	wf := &models.Workflow{
		ID:     id,
		Name:   "scheduled workflow",
		Status: status,
		Nodes: []*models.WorkflowNode{
			{ID: "start", Kind: models.NodeKindTrigger, Config: map[string]any{"schedule": schedule}},
		},
	}

	require.NoError(t, s.persistence.SaveWorkflow(context.Background(), wf))
}

func TestRefreshRegistersPublishedSchedules(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t)
	saveScheduled(t, s, "wf-1", "@hourly", models.WorkflowStatusPublished)
	saveScheduled(t, s, "wf-2", "@daily", models.WorkflowStatusDraft)

	require.NoError(t, s.refresh(context.Background()))

	assert.Contains(t, s.entries, "wf-1")
	assert.NotContains(t, s.entries, "wf-2")
}

func TestRefreshReplacesChangedSchedule(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t)
	saveScheduled(t, s, "wf-1", "@hourly", models.WorkflowStatusPublished)

	require.NoError(t, s.refresh(context.Background()))

	before := s.entries["wf-1"]
	assert.Equal(t, "@hourly", s.schedules["wf-1"])

	// Editing the published schedule takes effect on the next reconcile.
	saveScheduled(t, s, "wf-1", "@daily", models.WorkflowStatusPublished)

	require.NoError(t, s.refresh(context.Background()))

	assert.NotEqual(t, before, s.entries["wf-1"])
	assert.Equal(t, "@daily", s.schedules["wf-1"])
	assert.Len(t, s.cron.Entries(), 1)
}

func TestRefreshKeepsUnchangedSchedule(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t)
	saveScheduled(t, s, "wf-1", "@hourly", models.WorkflowStatusPublished)

	require.NoError(t, s.refresh(context.Background()))

	before := s.entries["wf-1"]

	require.NoError(t, s.refresh(context.Background()))

	assert.Equal(t, before, s.entries["wf-1"])
}

func TestRefreshRemovesUnpublishedWorkflow(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t)
	saveScheduled(t, s, "wf-1", "@hourly", models.WorkflowStatusPublished)

	require.NoError(t, s.refresh(context.Background()))
	require.Contains(t, s.entries, "wf-1")

	saveScheduled(t, s, "wf-1", "@hourly", models.WorkflowStatusArchived)

	require.NoError(t, s.refresh(context.Background()))

	assert.NotContains(t, s.entries, "wf-1")
	assert.Empty(t, s.cron.Entries())
}

func TestRefreshSkipsInvalidExpression(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t)
	saveScheduled(t, s, "wf-1", "not a cron spec", models.WorkflowStatusPublished)

	require.NoError(t, s.refresh(context.Background()))

	assert.NotContains(t, s.entries, "wf-1")
}
