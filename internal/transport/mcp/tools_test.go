package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	mcpmcp "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainproject "github.com/alanyang/prodline/internal/domain/project"
	"github.com/alanyang/prodline/internal/domain/stage"
	domaintask "github.com/alanyang/prodline/internal/domain/task"
	pipelinesvc "github.com/alanyang/prodline/internal/service/pipeline"
	projectsvc "github.com/alanyang/prodline/internal/service/project"
	reportsvc "github.com/alanyang/prodline/internal/service/report"
	"github.com/alanyang/prodline/internal/testutil"
)

// ── helpers ───────────────────────────────────────────────────────────────────

func makeReq(args map[string]any) mcpmcp.CallToolRequest {
	var req mcpmcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(r *mcpmcp.CallToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	b, _ := json.Marshal(r.Content[0])
	var m map[string]interface{}
	json.Unmarshal(b, &m) //nolint:errcheck
	if t, ok := m["text"].(string); ok {
		return t
	}
	return ""
}

func call(t *testing.T, h func(context.Context, mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error), args map[string]any) string {
	t.Helper()
	res, err := h(context.Background(), makeReq(args))
	require.NoError(t, err, "tool handlers report failures in the result, never as errors")
	return resultText(res)
}

// seedProject creates a project through the tool and assigns every task.
func seedProject(t *testing.T, svcs *testutil.Services) (domainproject.Project, []uuid.UUID) {
	t.Helper()
	text := call(t, createProjectHandler(svcs.Projects), map[string]any{"title": "Launch video"})
	var p domainproject.Project
	require.NoError(t, json.Unmarshal([]byte(text), &p), text)
	require.Len(t, p.Tasks, stage.Default.Len())

	actors := make([]uuid.UUID, len(p.Tasks))
	for i, tk := range p.Tasks {
		actors[i] = uuid.New()
		_, err := svcs.Pipeline.AssignTask(context.Background(), tk.ID, &actors[i])
		require.NoError(t, err)
	}
	return p, actors
}

// ── create_project / create_pipeline ─────────────────────────────────────────

func TestCreateProjectHandler(t *testing.T) {
	svcs := testutil.NewMemoryServices()
	p, _ := seedProject(t, svcs)
	assert.Equal(t, domainproject.StatusInProgress, p.Status)
	assert.Equal(t, domaintask.StatusInProgress, p.Tasks[0].Status)

	text := call(t, createProjectHandler(svcs.Projects), map[string]any{"title": "   "})
	assert.True(t, strings.HasPrefix(text, "error:"), text)

	text = call(t, createProjectHandler(svcs.Projects), map[string]any{"title": "x", "created_by": "nope"})
	assert.Equal(t, "error: invalid created_by", text)
}

func TestCreatePipelineHandler_AlreadyInstantiated(t *testing.T) {
	svcs := testutil.NewMemoryServices()
	p, _ := seedProject(t, svcs)

	text := call(t, createPipelineHandler(svcs.Pipeline), map[string]any{"project_id": p.ID.String()})
	assert.Contains(t, text, "invariant")

	text = call(t, createPipelineHandler(svcs.Pipeline), map[string]any{"project_id": "bad"})
	assert.Equal(t, "error: invalid project_id", text)
}

// ── apply_transition ─────────────────────────────────────────────────────────

func TestApplyTransitionHandler(t *testing.T) {
	svcs := testutil.NewMemoryServices()
	p, actors := seedProject(t, svcs)
	_, err := svcs.Contact.SetHandle(context.Background(), actors[1], "+1 (555) 010-2000")
	require.NoError(t, err)

	tests := []struct {
		name         string
		args         map[string]any
		wantContains string
	}{
		{
			name:         "invalid task id",
			args:         map[string]any{"task_id": "x", "status": "completed", "actor_id": actors[0].String()},
			wantContains: "error: invalid task_id",
		},
		{
			name:         "wrong actor",
			args:         map[string]any{"task_id": p.Tasks[0].ID.String(), "status": "completed", "actor_id": actors[1].String()},
			wantContains: "permission denied",
		},
		{
			name:         "illegal edge",
			args:         map[string]any{"task_id": p.Tasks[1].ID.String(), "status": "completed", "actor_id": actors[1].String()},
			wantContains: "invalid transition",
		},
		{
			name:         "complete first stage",
			args:         map[string]any{"task_id": p.Tasks[0].ID.String(), "status": "completed", "actor_id": actors[0].String()},
			wantContains: `"delivered":true`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := call(t, applyTransitionHandler(svcs.Pipeline), tt.args)
			assert.Contains(t, text, tt.wantContains)
		})
	}

	calls := svcs.Notifier.For("15550102000")
	require.Len(t, calls, 1)
	assert.Equal(t, pipelinesvc.MessageBody("Launch video", stage.Writing), calls[0].Body)
}

// ── assign_task / list_my_tasks / reports ────────────────────────────────────

func TestAssignAndListMyTasks(t *testing.T) {
	svcs := testutil.NewMemoryServices()
	p, _ := seedProject(t, svcs)
	actor := uuid.New()

	text := call(t, assignTaskHandler(svcs.Pipeline), map[string]any{
		"task_id": p.Tasks[0].ID.String(), "assignee_id": actor.String(),
	})
	assert.Contains(t, text, actor.String())

	text = call(t, listMyTasksHandler(svcs.Tasks), map[string]any{"actor_id": actor.String(), "status": "in_progress"})
	var tasks []domaintask.Task
	require.NoError(t, json.Unmarshal([]byte(text), &tasks), text)
	require.Len(t, tasks, 1)
	assert.Equal(t, p.Tasks[0].ID, tasks[0].ID)

	text = call(t, listMyTasksHandler(svcs.Tasks), map[string]any{"actor_id": actor.String(), "status": "paused"})
	assert.Contains(t, text, "unknown status")

	text = call(t, assignTaskHandler(svcs.Pipeline), map[string]any{"task_id": p.Tasks[0].ID.String()})
	assert.NotContains(t, text, "assigned_to", "omitting assignee_id clears it")
}

func TestCompletionRateHandler(t *testing.T) {
	svcs := testutil.NewMemoryServices()
	p, actors := seedProject(t, svcs)

	call(t, applyTransitionHandler(svcs.Pipeline), map[string]any{
		"task_id": p.Tasks[0].ID.String(), "status": "completed", "actor_id": actors[0].String(),
	})

	text := call(t, completionRateHandler(svcs.Reports), map[string]any{"actor_id": actors[0].String()})
	var stats reportsvc.ActorStats
	require.NoError(t, json.Unmarshal([]byte(text), &stats), text)
	assert.Equal(t, 1, stats.Completed)
	assert.InDelta(t, 100.0, stats.CompletionRate, 0.001)
}

func TestProjectStatusHandler(t *testing.T) {
	svcs := testutil.NewMemoryServices()
	p, _ := seedProject(t, svcs)

	text := call(t, projectStatusHandler(svcs.Projects), map[string]any{"project_id": p.ID.String()})
	var r projectsvc.StatusReport
	require.NoError(t, json.Unmarshal([]byte(text), &r), text)
	assert.Equal(t, domainproject.StatusInProgress, r.Status)
	require.NotNil(t, r.CurrentTask)
	assert.Equal(t, stage.TopicSelection, r.CurrentTask.Stage)

	text = call(t, projectStatusHandler(svcs.Projects), map[string]any{"project_id": uuid.New().String()})
	assert.Contains(t, text, "not found")
}

func TestRegisterActorHandler_NoSession(t *testing.T) {
	reg := NewSessionRegistry()
	text := call(t, registerActorHandler(reg), map[string]any{"actor_id": uuid.New().String()})
	assert.Equal(t, "error: no session", text)
}

// ── prompts ──────────────────────────────────────────────────────────────────

func TestBriefing(t *testing.T) {
	svcs := testutil.NewMemoryServices()
	p, _ := seedProject(t, svcs)
	r, err := svcs.Projects.GetProjectStatus(context.Background(), p.ID)
	require.NoError(t, err)

	text := Briefing(stage.TopicSelection, r)
	assert.Contains(t, text, "Project: Launch video (in_progress)")
	assert.Contains(t, text, "> 1. Topic selection: in_progress")
	assert.Contains(t, text, "Your stage is active")

	text = Briefing(stage.Publish, r)
	assert.Contains(t, text, "has not started yet")
}
