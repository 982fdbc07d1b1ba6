package task_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/alanyang/prodline/internal/domain/task"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		// Valid edges
		{name: "not_started→in_progress", from: StatusNotStarted, to: StatusInProgress, want: true},
		{name: "in_progress→completed",   from: StatusInProgress, to: StatusCompleted,  want: true},
		{name: "in_progress→held",        from: StatusInProgress, to: StatusHeld,       want: true},
		{name: "held→in_progress",        from: StatusHeld,       to: StatusInProgress, want: true},

		// Completed is terminal
		{name: "completed→in_progress invalid", from: StatusCompleted, to: StatusInProgress, want: false},
		{name: "completed→held invalid",        from: StatusCompleted, to: StatusHeld,       want: false},
		{name: "completed→not_started invalid", from: StatusCompleted, to: StatusNotStarted, want: false},

		// Not started must pass through in_progress
		{name: "not_started→completed invalid", from: StatusNotStarted, to: StatusCompleted, want: false},
		{name: "not_started→held invalid",      from: StatusNotStarted, to: StatusHeld,      want: false},

		// Held must resume first
		{name: "held→completed invalid",   from: StatusHeld, to: StatusCompleted,  want: false},
		{name: "held→not_started invalid", from: StatusHeld, to: StatusNotStarted, want: false},

		// Self-transitions are never valid
		{name: "in_progress self-transition", from: StatusInProgress, to: StatusInProgress, want: false},
		{name: "held self-transition",        from: StatusHeld,       to: StatusHeld,       want: false},
		{name: "completed self-transition",   from: StatusCompleted,  to: StatusCompleted,  want: false},

		// Unknown status
		{name: "unknown→in_progress is false", from: Status("garbage"), to: StatusInProgress, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestCanRequest(t *testing.T) {
	// Activation of a not-started task belongs to the advance logic only.
	assert.False(t, StatusNotStarted.CanRequest(StatusInProgress))
	assert.True(t, StatusInProgress.CanRequest(StatusCompleted))
	assert.True(t, StatusInProgress.CanRequest(StatusHeld))
	assert.True(t, StatusHeld.CanRequest(StatusInProgress))
	assert.False(t, StatusCompleted.CanRequest(StatusInProgress))
}

func TestParseStatus(t *testing.T) {
	for _, s := range Statuses {
		got, err := ParseStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseStatus("paused")
	assert.Error(t, err)
}

func TestLifecycleDates(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tk := New(uuid.New(), "writing", 1, start)
	assert.Equal(t, StatusNotStarted, tk.Status)
	assert.Nil(t, tk.StartDate)

	tk.Activate(start)
	require.NotNil(t, tk.StartDate)
	assert.Equal(t, start, *tk.StartDate)

	tk.Hold(start.Add(time.Hour))
	assert.Equal(t, StatusHeld, tk.Status)
	assert.Equal(t, start, *tk.StartDate, "hold leaves dates untouched")
	assert.Nil(t, tk.EndDate)

	tk.Resume(start.Add(2 * time.Hour))
	assert.Equal(t, StatusInProgress, tk.Status)
	assert.Equal(t, start, *tk.StartDate, "resume preserves the original start")

	end := start.Add(3 * time.Hour)
	tk.Complete(end)
	require.NotNil(t, tk.EndDate)
	assert.Equal(t, end, *tk.EndDate)
}

func TestIsAssignedTo(t *testing.T) {
	actor := uuid.New()
	tk := New(uuid.New(), "writing", 1, time.Now())
	assert.False(t, tk.IsAssignedTo(actor))

	tk.Assign(actor, time.Now())
	assert.True(t, tk.IsAssignedTo(actor))
	assert.False(t, tk.IsAssignedTo(uuid.New()))

	tk.Unassign(time.Now())
	assert.False(t, tk.IsAssignedTo(actor))
}
