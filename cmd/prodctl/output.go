package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	domaintask "github.com/alanyang/prodline/internal/domain/task"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTasks(cmd *cobra.Command, tasks []domaintask.Task) {
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{
			strconv.Itoa(t.Position + 1),
			t.Stage.Label(),
			string(t.Status),
			optionalID(t.AssignedTo),
			optionalTime(t.StartDate),
			optionalTime(t.EndDate),
			t.ID.String(),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"#", "Stage", "Status", "Assignee", "Started", "Ended", "Task ID"},
		rows,
		[]columnAlignment{alignRight},
	))
}

func optionalID(id *uuid.UUID) string {
	if id == nil {
		return "-"
	}
	return id.String()
}

func optionalTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func percent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}
