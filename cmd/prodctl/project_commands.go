package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	domainproject "github.com/alanyang/prodline/internal/domain/project"
	"github.com/alanyang/prodline/internal/wire"
)

func newProjectCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Create and inspect projects",
	}
	cmd.AddCommand(newProjectCreateCommand(ctx))
	cmd.AddCommand(newProjectShowCommand(ctx))
	cmd.AddCommand(newProjectListCommand(ctx))
	cmd.AddCommand(newProjectDeleteCommand(ctx))
	return cmd
}

func newProjectCreateCommand(ctx *commandContext) *cobra.Command {
	var description, createdBy string
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a project and start its pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var creator *uuid.UUID
			if createdBy != "" {
				id, err := parseUUIDArg("created-by", createdBy)
				if err != nil {
					return err
				}
				creator = &id
			}
			return ctx.withCore(cmd, func(c context.Context, core *wire.Core) error {
				p, err := core.Services.Projects.Create(c, args[0], description, creator)
				if err != nil {
					return err
				}
				if ctx.jsonFlag {
					return writeJSON(cmd, p)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created project %s (%s)\n", p.ID, p.Status)
				writeTasks(cmd, p.Tasks)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Project description")
	cmd.Flags().StringVar(&createdBy, "created-by", "", "Creator actor UUID")
	return cmd
}

func newProjectShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show project status and its pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUUIDArg("project id", args[0])
			if err != nil {
				return err
			}
			return ctx.withCore(cmd, func(c context.Context, core *wire.Core) error {
				r, err := core.Services.Projects.GetProjectStatus(c, id)
				if err != nil {
					return err
				}
				if ctx.jsonFlag {
					return writeJSON(cmd, r)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%d/%d stages completed)\n",
					r.Title, r.Status, r.CompletedStages, r.TotalStages)
				writeTasks(cmd, r.Tasks)
				return nil
			})
		},
	}
}

func newProjectListCommand(ctx *commandContext) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			var filters domainproject.ListFilters
			if status != "" {
				s, err := domainproject.ParseStatus(status)
				if err != nil {
					return err
				}
				filters.Status = &s
			}
			return ctx.withCore(cmd, func(c context.Context, core *wire.Core) error {
				projects, err := core.Services.Projects.List(c, filters)
				if err != nil {
					return err
				}
				if ctx.jsonFlag {
					return writeJSON(cmd, projects)
				}
				if len(projects) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No projects")
					return nil
				}
				rows := make([][]string, 0, len(projects))
				for _, p := range projects {
					rows = append(rows, []string{p.ID.String(), p.Title, string(p.Status), strconv.Itoa(len(p.Tasks))})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Title", "Status", "Stages"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "", "Filter by project status")
	return cmd
}

func newProjectDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project and all of its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUUIDArg("project id", args[0])
			if err != nil {
				return err
			}
			return ctx.withCore(cmd, func(c context.Context, core *wire.Core) error {
				if err := core.Services.Projects.Delete(c, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s\n", id)
				return nil
			})
		},
	}
}
