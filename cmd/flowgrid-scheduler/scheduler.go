// Package main provides the FlowGrid scheduler: it registers cron entries
// for published workflows whose trigger carries a schedule and funnels each
// tick into the shared run entry point.
package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/persistence"
	"github.com/flowgrid/flowgrid/pkg/workflow"
)

type Scheduler struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	engine      *workflow.Engine
	cron        *cron.Cron

	mu        sync.Mutex
	entries   map[string]cron.EntryID
	schedules map[string]string
}

func NewScheduler(logger *slog.Logger, p persistence.Persistence, engine *workflow.Engine) *Scheduler {
	return &Scheduler{
		logger:      logger,
		persistence: p,
		engine:      engine,
		cron:        cron.New(),
		entries:     make(map[string]cron.EntryID),
		schedules:   make(map[string]string),
	}
}

// Start registers the current schedules, begins ticking and keeps the entry
// table in sync with persistence until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context, refreshInterval time.Duration) error {
	if err := s.refresh(ctx); err != nil {
		return err
	}

	s.cron.Start()
	defer s.cron.Stop()

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.refresh(ctx); err != nil {
				s.logger.ErrorContext(ctx, "Failed to refresh schedules", "error", err)
			}
		}
	}
}

// refresh reconciles cron entries against the published workflows whose
// trigger node declares a schedule.
func (s *Scheduler) refresh(ctx context.Context) error {
	workflows, err := s.persistence.Workflows(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[string]string)

	for _, wf := range workflows {
		if wf.Status != models.WorkflowStatusPublished {
			continue
		}

		trigger := wf.TriggerNode()
		if trigger == nil {
			continue
		}

		schedule, _ := trigger.Config["schedule"].(string)
		if schedule != "" {
			wanted[wf.ID] = schedule
		}
	}

	// Drop entries whose workflow is gone or whose expression changed; a
	// changed expression is re-added below under the new schedule.
	for workflowID, entryID := range s.entries {
		schedule, ok := wanted[workflowID]
		if ok && schedule == s.schedules[workflowID] {
			continue
		}

		s.cron.Remove(entryID)
		delete(s.entries, workflowID)
		delete(s.schedules, workflowID)

		if !ok {
			s.logger.InfoContext(ctx, "Unscheduled workflow", "workflow_id", workflowID)
		}
	}

	for workflowID, schedule := range wanted {
		if _, ok := s.entries[workflowID]; ok {
			continue
		}

		id := workflowID

		entryID, err := s.cron.AddFunc(schedule, func() {
			s.tick(id)
		})
		if err != nil {
			s.logger.ErrorContext(ctx, "Invalid schedule expression",
				"workflow_id", workflowID, "schedule", schedule, "error", err)

			continue
		}

		s.entries[workflowID] = entryID
		s.schedules[workflowID] = schedule

		s.logger.InfoContext(ctx, "Scheduled workflow",
			"workflow_id", workflowID, "schedule", schedule)
	}

	return nil
}

func (s *Scheduler) tick(workflowID string) {
	ctx := context.Background()

	record, err := s.engine.ExecuteWorkflow(ctx, workflowID, "", "schedule", map[string]any{
		"scheduled_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Scheduled execution failed to start",
			"workflow_id", workflowID, "error", err)

		return
	}

	s.logger.InfoContext(ctx, "Scheduled execution finished",
		"workflow_id", workflowID,
		"execution_id", record.ID,
		"status", record.Status)
}
