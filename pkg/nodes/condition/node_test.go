package condition

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgrid/flowgrid/pkg/models"
)

func branchWorkflow() *models.Workflow {
	return &models.Workflow{
		Nodes: []*models.WorkflowNode{
			{ID: "check", Kind: models.NodeKindCondition},
			{ID: "yes", Kind: models.NodeKindAction},
			{ID: "no", Kind: models.NodeKindAction},
		},
		Edges: []*models.Edge{
			{ID: "e1", Source: "check", Target: "yes", Branch: models.BranchTrue},
			{ID: "e2", Source: "check", Target: "no", Branch: models.BranchFalse},
		},
	}
}

func execute(t *testing.T, wf *models.Workflow, config map[string]any, variables map[string]any) models.NodeExecutionResult {
	t.Helper()

	ec := models.NewExecutionContext("exec-1", "wf-1", "user-1", "manual", nil)
	for name, value := range variables {
		ec.SetVariable(name, value)
	}

	node := &models.WorkflowNode{ID: "check", Kind: models.NodeKindCondition, Config: config}

	return NewRunner().Execute(context.Background(), wf, node, ec)
}

func TestRoutesToTrueBranch(t *testing.T) {
	t.Parallel()

	result := execute(t, branchWorkflow(), map[string]any{
		"conditions": []any{
			map[string]any{"field": "{count}", "operator": "greater_than", "value": 3},
		},
	}, map[string]any{"count": 5})

	require.True(t, result.Success)
	assert.Equal(t, []string{"yes"}, result.NextNodeIDs)

	output := result.Output.(map[string]any)
	assert.Equal(t, true, output["conditionMet"])
	assert.Equal(t, 1, output["clauses"])
}

func TestRoutesToFalseBranch(t *testing.T) {
	t.Parallel()

	result := execute(t, branchWorkflow(), map[string]any{
		"conditions": []any{
			map[string]any{"field": "{count}", "operator": "greater_than", "value": 3},
		},
	}, map[string]any{"count": 1})

	require.True(t, result.Success)
	assert.Equal(t, []string{"no"}, result.NextNodeIDs)
	assert.Equal(t, false, result.Output.(map[string]any)["conditionMet"])
}

func TestNoBranchEdgeFallsBackToDefault(t *testing.T) {
	t.Parallel()

	wf := &models.Workflow{
		Nodes: []*models.WorkflowNode{
			{ID: "check", Kind: models.NodeKindCondition},
			{ID: "next", Kind: models.NodeKindAction},
		},
		Edges: []*models.Edge{
			{ID: "e1", Source: "check", Target: "next"},
		},
	}

	result := execute(t, wf, map[string]any{
		"conditions": []any{
			map[string]any{"field": "x", "operator": "equals", "value": "x"},
		},
	}, nil)

	require.True(t, result.Success)
	assert.Empty(t, result.NextNodeIDs)
}

func TestZeroClausesVacuousTruth(t *testing.T) {
	t.Parallel()

	andResult := execute(t, branchWorkflow(), map[string]any{"operator": "and"}, nil)
	require.True(t, andResult.Success)
	assert.Equal(t, []string{"yes"}, andResult.NextNodeIDs)

	orResult := execute(t, branchWorkflow(), map[string]any{"operator": "or"}, nil)
	require.True(t, orResult.Success)
	assert.Equal(t, []string{"no"}, orResult.NextNodeIDs)
}

func TestOrCombinator(t *testing.T) {
	t.Parallel()

	result := execute(t, branchWorkflow(), map[string]any{
		"operator": "or",
		"conditions": []any{
			map[string]any{"field": "{count}", "operator": "greater_than", "value": 100},
			map[string]any{"field": "{count}", "operator": "less_than", "value": 10},
		},
	}, map[string]any{"count": 5})

	require.True(t, result.Success)
	assert.Equal(t, []string{"yes"}, result.NextNodeIDs)
}
