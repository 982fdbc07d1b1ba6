package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	domainproject "github.com/alanyang/prodline/internal/domain/project"
	domaintask "github.com/alanyang/prodline/internal/domain/task"
	"github.com/alanyang/prodline/internal/wire"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Completion and dashboard reports",
	}
	cmd.AddCommand(newCompletionCommand(ctx))
	cmd.AddCommand(newDashboardCommand(ctx))
	cmd.AddCommand(newLeaderboardCommand(ctx))
	return cmd
}

func newCompletionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "completion <actor-id>",
		Short: "Completion rate of one actor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := parseUUIDArg("actor id", args[0])
			if err != nil {
				return err
			}
			return ctx.withCore(cmd, func(c context.Context, core *wire.Core) error {
				s, err := core.Services.Reports.CompletionRate(c, actor)
				if err != nil {
					return err
				}
				if ctx.jsonFlag {
					return writeJSON(cmd, s)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d of %d tasks completed (%s)\n",
					actor, s.Completed, s.Total, percent(s.CompletionRate))
				return nil
			})
		},
	}
}

func newDashboardCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Project and task counts by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCore(cmd, func(c context.Context, core *wire.Core) error {
				d, err := core.Services.Reports.Dashboard(c)
				if err != nil {
					return err
				}
				if ctx.jsonFlag {
					return writeJSON(cmd, d)
				}
				rows := make([][]string, 0, len(domaintask.Statuses))
				for i, ts := range domaintask.Statuses {
					ps := domainproject.Statuses[i]
					rows = append(rows, []string{
						string(ts),
						strconv.Itoa(d.ProjectStatuses[ps]),
						strconv.Itoa(d.TaskStatuses[ts]),
					})
				}
				rows = append(rows, []string{"total", strconv.Itoa(d.TotalProjects), strconv.Itoa(d.TotalTasks)})
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Status", "Projects", "Tasks"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight},
				))
				fmt.Fprintf(cmd.OutOrStdout(), "This month: %d new projects, %d tasks completed. Actors: %d\n",
					d.NewProjectsThisMonth, d.CompletedTasksThisMonth, d.TotalActors)
				return nil
			})
		},
	}
}

func newLeaderboardCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard",
		Short: "Actors ranked by completion rate",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCore(cmd, func(c context.Context, core *wire.Core) error {
				board, err := core.Services.Reports.Leaderboard(c)
				if err != nil {
					return err
				}
				if ctx.jsonFlag {
					return writeJSON(cmd, board)
				}
				rows := make([][]string, 0, len(board))
				for i, s := range board {
					rows = append(rows, []string{
						strconv.Itoa(i + 1),
						s.ActorID.String(),
						strconv.Itoa(s.Completed),
						strconv.Itoa(s.Total),
						percent(s.CompletionRate),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"#", "Actor", "Completed", "Assigned", "Rate"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}
}
