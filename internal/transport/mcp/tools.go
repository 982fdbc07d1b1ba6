package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	mcpmcp "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	domaintask "github.com/alanyang/prodline/internal/domain/task"
	pipelinesvc "github.com/alanyang/prodline/internal/service/pipeline"
	projectsvc "github.com/alanyang/prodline/internal/service/project"
	reportsvc "github.com/alanyang/prodline/internal/service/report"
	tasksvc "github.com/alanyang/prodline/internal/service/task"
)

// RegisterTools registers every MCP tool on the server.
func RegisterTools(s *mcpserver.MCPServer, reg *SessionRegistry, svcs Services) {
	s.AddTool(mcpmcp.NewTool("register_actor",
		mcpmcp.WithDescription("Bind this session to an actor. Task activations and assignments for the actor are then pushed as notifications."),
		mcpmcp.WithString("actor_id", mcpmcp.Required(), mcpmcp.Description("Actor UUID")),
	), registerActorHandler(reg))

	s.AddTool(mcpmcp.NewTool("create_project",
		mcpmcp.WithDescription("Create a project and instantiate its stage pipeline. The first stage starts immediately."),
		mcpmcp.WithString("title", mcpmcp.Required(), mcpmcp.Description("Project title")),
		mcpmcp.WithString("description", mcpmcp.Description("Free-form description")),
		mcpmcp.WithString("created_by", mcpmcp.Description("Creator actor UUID")),
	), createProjectHandler(svcs.Projects))

	s.AddTool(mcpmcp.NewTool("create_pipeline",
		mcpmcp.WithDescription("Instantiate the stage pipeline for a project that has none yet."),
		mcpmcp.WithString("project_id", mcpmcp.Required(), mcpmcp.Description("Project UUID")),
	), createPipelineHandler(svcs.Pipeline))

	s.AddTool(mcpmcp.NewTool("apply_transition",
		mcpmcp.WithDescription("Request a task status change as its assignee. Valid requests: in_progress→completed, in_progress→held, held→in_progress. Completing a stage starts the next one and notifies its assignee."),
		mcpmcp.WithString("task_id", mcpmcp.Required(), mcpmcp.Description("Task UUID")),
		mcpmcp.WithString("status", mcpmcp.Required(), mcpmcp.Description("Target status: completed, held or in_progress")),
		mcpmcp.WithString("actor_id", mcpmcp.Required(), mcpmcp.Description("Acting actor UUID; must be the assignee")),
	), applyTransitionHandler(svcs.Pipeline))

	s.AddTool(mcpmcp.NewTool("assign_task",
		mcpmcp.WithDescription("Assign a task to an actor, or clear the assignee when assignee_id is omitted."),
		mcpmcp.WithString("task_id", mcpmcp.Required(), mcpmcp.Description("Task UUID")),
		mcpmcp.WithString("assignee_id", mcpmcp.Description("Assignee actor UUID")),
	), assignTaskHandler(svcs.Pipeline))

	s.AddTool(mcpmcp.NewTool("get_project_status",
		mcpmcp.WithDescription("Return the project status with every task in stage order."),
		mcpmcp.WithString("project_id", mcpmcp.Required(), mcpmcp.Description("Project UUID")),
	), projectStatusHandler(svcs.Projects))

	s.AddTool(mcpmcp.NewTool("list_my_tasks",
		mcpmcp.WithDescription("List tasks assigned to an actor, optionally filtered by a comma-separated status list."),
		mcpmcp.WithString("actor_id", mcpmcp.Required(), mcpmcp.Description("Actor UUID")),
		mcpmcp.WithString("status", mcpmcp.Description("e.g. in_progress,held")),
	), listMyTasksHandler(svcs.Tasks))

	s.AddTool(mcpmcp.NewTool("completion_rate",
		mcpmcp.WithDescription("Per-actor task counts and completion rate in percent."),
		mcpmcp.WithString("actor_id", mcpmcp.Required(), mcpmcp.Description("Actor UUID")),
	), completionRateHandler(svcs.Reports))
}

// ── Tool handlers ─────────────────────────────────────────────────────────

func jsonResult(v any) (*mcpmcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcpmcp.NewToolResultText(fmt.Sprintf("error: %s", err)), nil
	}
	return mcpmcp.NewToolResultText(string(data)), nil
}

func errResult(err error) (*mcpmcp.CallToolResult, error) {
	return mcpmcp.NewToolResultText(fmt.Sprintf("error: %s", err)), nil
}

func parseUUID(req mcpmcp.CallToolRequest, key string) (uuid.UUID, *mcpmcp.CallToolResult) {
	id, err := uuid.Parse(mcpmcp.ParseString(req, key, ""))
	if err != nil {
		return uuid.Nil, mcpmcp.NewToolResultText("error: invalid " + key)
	}
	return id, nil
}

func registerActorHandler(reg *SessionRegistry) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		actorID, bad := parseUUID(req, "actor_id")
		if bad != nil {
			return bad, nil
		}
		session := mcpserver.ClientSessionFromContext(ctx)
		if session == nil {
			return mcpmcp.NewToolResultText("error: no session"), nil
		}
		reg.Register(session.SessionID(), actorID)
		return jsonResult(map[string]string{"actor_id": actorID.String()})
	}
}

func createProjectHandler(svc *projectsvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		title := mcpmcp.ParseString(req, "title", "")
		description := mcpmcp.ParseString(req, "description", "")

		var createdBy *uuid.UUID
		if v := mcpmcp.ParseString(req, "created_by", ""); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				return mcpmcp.NewToolResultText("error: invalid created_by"), nil
			}
			createdBy = &id
		}

		p, err := svc.Create(ctx, title, description, createdBy)
		if err != nil {
			return errResult(err)
		}
		return jsonResult(p)
	}
}

func createPipelineHandler(svc *pipelinesvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		projectID, bad := parseUUID(req, "project_id")
		if bad != nil {
			return bad, nil
		}
		tasks, err := svc.CreatePipeline(ctx, projectID)
		if err != nil {
			return errResult(err)
		}
		return jsonResult(tasks)
	}
}

func applyTransitionHandler(svc *pipelinesvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		taskID, bad := parseUUID(req, "task_id")
		if bad != nil {
			return bad, nil
		}
		actorID, bad := parseUUID(req, "actor_id")
		if bad != nil {
			return bad, nil
		}
		to := domaintask.Status(mcpmcp.ParseString(req, "status", ""))

		res, err := svc.ApplyTransition(ctx, taskID, to, actorID)
		if err != nil {
			return errResult(err)
		}
		return jsonResult(res)
	}
}

func assignTaskHandler(svc *pipelinesvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		taskID, bad := parseUUID(req, "task_id")
		if bad != nil {
			return bad, nil
		}
		var assignee *uuid.UUID
		if mcpmcp.ParseString(req, "assignee_id", "") != "" {
			id, bad := parseUUID(req, "assignee_id")
			if bad != nil {
				return bad, nil
			}
			assignee = &id
		}

		t, err := svc.AssignTask(ctx, taskID, assignee)
		if err != nil {
			return errResult(err)
		}
		return jsonResult(t)
	}
}

func projectStatusHandler(svc *projectsvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		projectID, bad := parseUUID(req, "project_id")
		if bad != nil {
			return bad, nil
		}
		r, err := svc.GetProjectStatus(ctx, projectID)
		if err != nil {
			return errResult(err)
		}
		return jsonResult(r)
	}
}

func listMyTasksHandler(svc *tasksvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		actorID, bad := parseUUID(req, "actor_id")
		if bad != nil {
			return bad, nil
		}
		var statuses []domaintask.Status
		if v := mcpmcp.ParseString(req, "status", ""); v != "" {
			for _, raw := range strings.Split(v, ",") {
				statuses = append(statuses, domaintask.Status(strings.TrimSpace(raw)))
			}
		}

		tasks, err := svc.ForAssignee(ctx, actorID, statuses...)
		if err != nil {
			return errResult(err)
		}
		if tasks == nil {
			tasks = []domaintask.Task{}
		}
		return jsonResult(tasks)
	}
}

func completionRateHandler(svc *reportsvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		actorID, bad := parseUUID(req, "actor_id")
		if bad != nil {
			return bad, nil
		}
		stats, err := svc.CompletionRate(ctx, actorID)
		if err != nil {
			return errResult(err)
		}
		return jsonResult(stats)
	}
}
