package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	domaintask "github.com/alanyang/prodline/internal/domain/task"
	"github.com/alanyang/prodline/internal/wire"
)

func newTaskCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Move tasks through the pipeline",
	}
	cmd.AddCommand(newTaskTransitionCommand(ctx))
	cmd.AddCommand(newTaskAssignCommand(ctx))
	cmd.AddCommand(newTaskListCommand(ctx))
	return cmd
}

func newTaskTransitionCommand(ctx *commandContext) *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:   "transition <task-id> <completed|held|in_progress>",
		Short: "Request a status change as the task's assignee",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseUUIDArg("task id", args[0])
			if err != nil {
				return err
			}
			actorID, err := parseUUIDArg("actor", actor)
			if err != nil {
				return err
			}
			return ctx.withCore(cmd, func(c context.Context, core *wire.Core) error {
				res, err := core.Services.Pipeline.ApplyTransition(c, taskID, domaintask.Status(args[1]), actorID)
				if err != nil {
					return err
				}
				if ctx.jsonFlag {
					return writeJSON(cmd, res)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s: %s -> %s (project %s)\n", res.Task.Stage.Label(), res.From, res.Task.Status, res.ProjectStatus)
				if res.Activated != nil {
					fmt.Fprintf(out, "Started %s\n", res.Activated.Stage.Label())
				}
				if d := res.Delivery; d != nil {
					if d.Delivered {
						fmt.Fprintf(out, "Assignee notified (%s)\n", d.MessageID)
					} else {
						fmt.Fprintf(out, "Notification not delivered: %s\nSend manually: %s\n", d.Error, d.FallbackLink)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&actor, "actor", "a", "", "Acting actor UUID (must be the assignee)")
	cmd.MarkFlagRequired("actor") //nolint:errcheck
	return cmd
}

func newTaskAssignCommand(ctx *commandContext) *cobra.Command {
	var clearAssignee bool
	cmd := &cobra.Command{
		Use:   "assign <task-id> [actor-id]",
		Short: "Assign a task, or clear its assignee with --clear",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseUUIDArg("task id", args[0])
			if err != nil {
				return err
			}
			var assignee *uuid.UUID
			switch {
			case clearAssignee:
			case len(args) == 2:
				id, err := parseUUIDArg("actor id", args[1])
				if err != nil {
					return err
				}
				assignee = &id
			default:
				return fmt.Errorf("actor id required unless --clear is set")
			}
			return ctx.withCore(cmd, func(c context.Context, core *wire.Core) error {
				t, err := core.Services.Pipeline.AssignTask(c, taskID, assignee)
				if err != nil {
					return err
				}
				if ctx.jsonFlag {
					return writeJSON(cmd, t)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s assigned to %s\n", t.Stage.Label(), optionalID(t.AssignedTo))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&clearAssignee, "clear", false, "Remove the current assignee")
	return cmd
}

func newTaskListCommand(ctx *commandContext) *cobra.Command {
	var project, assignee string
	var statuses []string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			var filters domaintask.ListFilters
			if project != "" {
				id, err := parseUUIDArg("project id", project)
				if err != nil {
					return err
				}
				filters.ProjectID = &id
			}
			if assignee != "" {
				id, err := parseUUIDArg("assignee", assignee)
				if err != nil {
					return err
				}
				filters.AssignedTo = &id
			}
			for _, raw := range statuses {
				s, err := domaintask.ParseStatus(raw)
				if err != nil {
					return err
				}
				filters.Status = append(filters.Status, s)
			}
			return ctx.withCore(cmd, func(c context.Context, core *wire.Core) error {
				tasks, err := core.Services.Tasks.List(c, filters)
				if err != nil {
					return err
				}
				if ctx.jsonFlag {
					return writeJSON(cmd, tasks)
				}
				if len(tasks) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No tasks")
					return nil
				}
				writeTasks(cmd, tasks)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&project, "project", "p", "", "Filter by project UUID")
	cmd.Flags().StringVar(&assignee, "assignee", "", "Filter by assignee UUID")
	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "Filter by task status (repeatable)")
	return cmd
}
