// Package workflow contains the run orchestrator: it walks the node graph,
// dispatches runners, applies branching decisions and persists results.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowgrid/flowgrid/pkg/eventbus"
	"github.com/flowgrid/flowgrid/pkg/events"
	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/otelhelper"
	"github.com/flowgrid/flowgrid/pkg/persistence"
	"github.com/flowgrid/flowgrid/pkg/protocol"
	"github.com/flowgrid/flowgrid/pkg/providers/credentials"
	"github.com/flowgrid/flowgrid/pkg/registry"
)

// Engine executes workflow runs. One engine serves many concurrent runs;
// each run owns its execution context exclusively and steps through nodes
// sequentially.
type Engine struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	credentials credentials.Store
	publisher   eventbus.EventPublisher
	tracer      trace.Tracer
}

func NewEngine(
	logger *slog.Logger,
	p persistence.Persistence,
	reg *registry.Registry,
	creds credentials.Store,
) *Engine {
	return &Engine{
		logger:      logger,
		persistence: p,
		registry:    reg,
		credentials: creds,
	}
}

// WithPublisher attaches an event publisher for run lifecycle events.
func (e *Engine) WithPublisher(publisher eventbus.EventPublisher) *Engine {
	e.publisher = publisher

	return e
}

// WithTracer attaches a tracer; the engine opens a span per run and per node.
func (e *Engine) WithTracer(tracer trace.Tracer) *Engine {
	e.tracer = tracer

	return e
}

// ExecuteWorkflow is the single entry point for every run: manual API calls,
// scheduled ticks and webhook deliveries all funnel here, distinguished by
// triggerType. It returns the persisted run record; the returned error covers
// run-level failures (unknown workflow, invalid graph, storage), while node
// failures are reported through the record's status and error fields.
func (e *Engine) ExecuteWorkflow(
	ctx context.Context,
	workflowID, userID, triggerType string,
	triggerData map[string]any,
) (*models.ExecutionRecord, error) {
	wf, err := e.persistence.WorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workflow %s: %w", workflowID, err)
	}

	if err := Validate(wf); err != nil {
		return nil, fmt.Errorf("workflow %s failed graph validation: %w", workflowID, err)
	}

	ec := models.NewExecutionContext(uuid.New().String(), workflowID, userID, triggerType, triggerData)
	for name, value := range wf.Variables {
		ec.SetVariable(name, value)
	}

	e.loadConnections(ctx, wf, ec)

	logger := e.logger.With(
		"workflow_id", workflowID,
		"execution_id", ec.ExecutionID,
		"trigger_type", triggerType,
	)
	logger.InfoContext(ctx, "Starting workflow execution")

	record := &models.ExecutionRecord{
		ID:          ec.ExecutionID,
		WorkflowID:  workflowID,
		UserID:      userID,
		Status:      models.ExecutionStatusRunning,
		TriggerType: triggerType,
		TriggerData: triggerData,
		StartedAt:   ec.StartedAt,
	}

	if err := e.persistence.SaveExecution(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist execution record: %w", err)
	}

	e.publish(ctx, events.ExecutionStarted{
		BaseEvent:    events.NewBaseEvent(events.ExecutionStartedEvent, workflowID),
		ExecutionID:  ec.ExecutionID,
		WorkflowName: wf.Name,
		TriggerType:  triggerType,
		TriggerData:  triggerData,
	})

	runCtx := ctx

	var runSpan trace.Span
	if e.tracer != nil {
		runCtx, runSpan = otelhelper.StartSpan(ctx, e.tracer, "workflow.execute",
			attribute.String(otelhelper.WorkflowIDKey, workflowID),
			attribute.String(otelhelper.ExecutionIDKey, ec.ExecutionID),
			attribute.String(otelhelper.TriggerTypeKey, triggerType),
		)
		defer runSpan.End()
	}

	failedNode, nodesExecuted := e.run(runCtx, logger, wf, ec, record)

	completedAt := time.Now().UTC()
	record.CompletedAt = &completedAt
	record.Logs = ec.Logs

	durationMs := completedAt.Sub(record.StartedAt).Milliseconds()

	switch record.Status {
	case models.ExecutionStatusFailed:
		logger.WarnContext(ctx, "Workflow execution failed", "node_id", failedNode, "error", record.Error)

		if runSpan != nil {
			otelhelper.SetError(runSpan, fmt.Errorf("node %s: %s", failedNode, record.Error))
		}

		e.publish(ctx, events.ExecutionFailed{
			BaseEvent:     events.NewBaseEvent(events.ExecutionFailedEvent, workflowID),
			ExecutionID:   ec.ExecutionID,
			NodeID:        failedNode,
			Error:         record.Error,
			DurationMs:    durationMs,
			NodesExecuted: nodesExecuted,
		})
	case models.ExecutionStatusCancelled:
		logger.InfoContext(ctx, "Workflow execution cancelled", "nodes_executed", nodesExecuted)
		e.publish(ctx, events.ExecutionCancelled{
			BaseEvent:     events.NewBaseEvent(events.ExecutionCancelledEvent, workflowID),
			ExecutionID:   ec.ExecutionID,
			DurationMs:    durationMs,
			NodesExecuted: nodesExecuted,
		})
	default:
		record.Status = models.ExecutionStatusCompleted

		logger.InfoContext(ctx, "Workflow execution completed", "nodes_executed", nodesExecuted)
		e.publish(ctx, events.ExecutionCompleted{
			BaseEvent:     events.NewBaseEvent(events.ExecutionCompletedEvent, workflowID),
			ExecutionID:   ec.ExecutionID,
			DurationMs:    durationMs,
			NodesExecuted: nodesExecuted,
		})
	}

	// The run happened regardless of whether its final state can be stored;
	// a save failure is reported alongside the record.
	if err := e.persistence.SaveExecution(ctx, record); err != nil {
		return record, fmt.Errorf("failed to persist final execution record: %w", err)
	}

	return record, nil
}

// run walks the graph from the trigger node, returning the ID of the node
// that failed fatally (if any) and the number of nodes executed. It mutates
// record.Status for failed and cancelled outcomes.
func (e *Engine) run(
	ctx context.Context,
	logger *slog.Logger,
	wf *models.Workflow,
	ec *models.ExecutionContext,
	record *models.ExecutionRecord,
) (string, int) {
	trigger := wf.TriggerNode()
	queue := []string{trigger.ID}
	executed := make(map[string]bool, len(wf.Nodes))
	nodesExecuted := 0

	for len(queue) > 0 {
		// Cancellation is honored between nodes only, never inside a
		// runner's external call.
		if ctx.Err() != nil {
			record.Status = models.ExecutionStatusCancelled

			return "", nodesExecuted
		}

		nodeID := queue[0]
		queue = queue[1:]

		// Converging branches may enqueue the same node twice; it runs once.
		if executed[nodeID] {
			continue
		}

		executed[nodeID] = true

		node, ok := wf.Node(nodeID)
		if !ok {
			record.Status = models.ExecutionStatusFailed
			record.Error = fmt.Sprintf("node %s not found in workflow", nodeID)

			return nodeID, nodesExecuted
		}

		runner, err := e.registry.RunnerFor(node.Kind)
		if err != nil {
			record.Status = models.ExecutionStatusFailed
			record.Error = err.Error()

			return nodeID, nodesExecuted
		}

		stepStarted := time.Now().UTC()
		result := e.safeExecute(ctx, runner, wf, node, ec)
		stepCompleted := time.Now().UTC()
		nodesExecuted++

		e.recordStep(ctx, logger, ec, node, result, stepStarted, stepCompleted)

		if result.Success {
			ec.SetStepOutput(node.ID, result.Output)
		}

		if !result.ShouldContinue {
			if !result.Success {
				record.Status = models.ExecutionStatusFailed
				record.Error = result.Error

				return node.ID, nodesExecuted
			}

			continue
		}

		// A condition runner's branch decision overrides the authored
		// default edges; everything else follows them in order.
		next := result.NextNodeIDs
		if len(next) == 0 {
			next = wf.DefaultTargets(node.ID)
		}

		queue = append(queue, next...)
	}

	return "", nodesExecuted
}

// safeExecute invokes a runner, converting a panic into a fatal node result
// so that no node failure can crash the run.
func (e *Engine) safeExecute(
	ctx context.Context,
	runner protocol.Runner,
	wf *models.Workflow,
	node *models.WorkflowNode,
	ec *models.ExecutionContext,
) (result models.NodeExecutionResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.ErrorContext(ctx, "Node runner panicked",
				"node_id", node.ID, "node_kind", node.Kind, "panic", r)

			result = models.Fatal(fmt.Sprintf("node %s panicked: %v", node.ID, r))
		}
	}()

	nodeCtx := ctx

	if e.tracer != nil {
		var span trace.Span

		nodeCtx, span = otelhelper.StartSpan(ctx, e.tracer, "node.execute",
			attribute.String(otelhelper.NodeIDKey, node.ID),
			attribute.String(otelhelper.NodeKindKey, string(node.Kind)),
			attribute.String(otelhelper.ExecutionIDKey, ec.ExecutionID),
		)
		defer func() {
			if !result.Success {
				otelhelper.SetError(span, fmt.Errorf("%s", result.Error))
			}

			span.End()
		}()
	}

	return runner.Execute(nodeCtx, wf, node, ec)
}

// recordStep persists the step record and publishes the step event. Storage
// failures are logged but do not fail the run.
func (e *Engine) recordStep(
	ctx context.Context,
	logger *slog.Logger,
	ec *models.ExecutionContext,
	node *models.WorkflowNode,
	result models.NodeExecutionResult,
	startedAt, completedAt time.Time,
) {
	step := &models.StepRecord{
		ID:          uuid.New().String(),
		ExecutionID: ec.ExecutionID,
		StepID:      node.ID,
		StartedAt:   startedAt,
		CompletedAt: completedAt,
		Success:     result.Success,
		Output:      result.Output,
		Error:       result.Error,
	}

	if err := e.persistence.SaveStep(ctx, step); err != nil {
		logger.ErrorContext(ctx, "Failed to persist step record", "node_id", node.ID, "error", err)
	}

	durationMs := completedAt.Sub(startedAt).Milliseconds()

	if result.Success {
		e.publish(ctx, events.StepFinished{
			BaseEvent:   events.NewBaseEvent(events.StepFinishedEvent, ec.WorkflowID),
			ExecutionID: ec.ExecutionID,
			NodeID:      node.ID,
			Output:      result.Output,
			DurationMs:  durationMs,
		})
	} else {
		e.publish(ctx, events.StepFailed{
			BaseEvent:   events.NewBaseEvent(events.StepFailedEvent, ec.WorkflowID),
			ExecutionID: ec.ExecutionID,
			NodeID:      node.ID,
			Error:       result.Error,
			DurationMs:  durationMs,
		})
	}
}

// loadConnections preloads integration credentials for every action node
// that names one, before the run starts. Missing credentials are not an
// error; the action runner reports the skip.
func (e *Engine) loadConnections(ctx context.Context, wf *models.Workflow, ec *models.ExecutionContext) {
	if e.credentials == nil {
		return
	}

	wanted := make(map[string]bool)

	for _, node := range wf.Nodes {
		if node.Kind != models.NodeKindAction {
			continue
		}

		integration, _ := node.Config["integration"].(string)
		if integration == "" {
			if actionType, _ := node.Config["actionType"].(string); actionType == "send_sms" {
				integration = "sms"
			}
		}

		if integration != "" {
			wanted[integration] = true
		}
	}

	for integration := range wanted {
		cred, err := e.credentials.Credential(ctx, ec.UserID, integration)
		if err != nil {
			e.logger.WarnContext(ctx, "Failed to load integration credential",
				"integration", integration, "error", err)

			continue
		}

		if cred != nil {
			ec.Connections[integration] = cred
		}
	}
}

// publish sends a lifecycle event when a publisher is attached. Event
// delivery is best effort and never affects the run outcome.
func (e *Engine) publish(ctx context.Context, event eventbus.Event) {
	if e.publisher == nil {
		return
	}

	if err := e.publisher.Publish(ctx, string(event.GetType()), event); err != nil {
		e.logger.WarnContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}
