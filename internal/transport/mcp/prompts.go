package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	mcpmcp "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/alanyang/prodline/internal/domain/stage"
	domaintask "github.com/alanyang/prodline/internal/domain/task"
	projectsvc "github.com/alanyang/prodline/internal/service/project"
)

// RegisterPrompts registers one briefing prompt per catalog stage.
func RegisterPrompts(s *mcpserver.MCPServer, projects *projectsvc.Service, cat stage.Catalog) {
	for _, id := range cat {
		s.AddPrompt(
			mcpmcp.NewPrompt(string(id),
				mcpmcp.WithPromptDescription(fmt.Sprintf("Briefing for whoever owns the %s stage of a project.", id.Label())),
				mcpmcp.WithArgument("project_id",
					mcpmcp.ArgumentDescription("Project UUID"),
					mcpmcp.RequiredArgument(),
				),
			),
			promptHandler(id, projects),
		)
	}
}

func promptHandler(id stage.ID, projects *projectsvc.Service) mcpserver.PromptHandlerFunc {
	return func(ctx context.Context, req mcpmcp.GetPromptRequest) (*mcpmcp.GetPromptResult, error) {
		projectID, err := uuid.Parse(req.Params.Arguments["project_id"])
		if err != nil {
			return nil, fmt.Errorf("invalid project_id: %w", err)
		}

		r, err := projects.GetProjectStatus(ctx, projectID)
		if err != nil {
			return nil, fmt.Errorf("brief %s: %w", id, err)
		}

		return mcpmcp.NewGetPromptResult(
			fmt.Sprintf("%s briefing", id.Label()),
			[]mcpmcp.PromptMessage{
				mcpmcp.NewPromptMessage(
					mcpmcp.RoleUser,
					mcpmcp.TextContent{
						Type: "text",
						Text: Briefing(id, r),
					},
				),
			},
		), nil
	}
}

// Briefing renders the project state as seen from one stage.
func Briefing(id stage.ID, r projectsvc.StatusReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s (%s)\n", r.Title, r.Status)
	fmt.Fprintf(&b, "Progress: %d of %d stages completed\n", r.CompletedStages, r.TotalStages)
	for _, t := range r.Tasks {
		marker := " "
		if t.Stage == id {
			marker = ">"
		}
		fmt.Fprintf(&b, "%s %d. %s: %s\n", marker, t.Position+1, t.Stage.Label(), t.Status)
	}
	for _, t := range r.Tasks {
		if t.Stage != id {
			continue
		}
		switch t.Status {
		case domaintask.StatusInProgress:
			b.WriteString("Your stage is active. Mark it completed when done, or held if blocked.\n")
		case domaintask.StatusHeld:
			b.WriteString("Your stage is on hold. Resume it with in_progress once unblocked.\n")
		case domaintask.StatusNotStarted:
			b.WriteString("Your stage has not started yet; you will be notified when it does.\n")
		case domaintask.StatusCompleted:
			b.WriteString("Your stage is completed.\n")
		}
	}
	return b.String()
}
