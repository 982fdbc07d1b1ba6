package project_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alanyang/prodline/internal/domain/project"
	"github.com/alanyang/prodline/internal/domain/task"
)

func TestAggregate(t *testing.T) {
	const (
		ns = task.StatusNotStarted
		ip = task.StatusInProgress
		co = task.StatusCompleted
		he = task.StatusHeld
	)

	tests := []struct {
		name     string
		statuses []task.Status
		want     project.Status
	}{
		{name: "empty pipeline", statuses: nil, want: project.StatusNotStarted},
		{name: "all not started", statuses: []task.Status{ns, ns, ns}, want: project.StatusNotStarted},
		{name: "first active", statuses: []task.Status{ip, ns, ns}, want: project.StatusInProgress},
		{name: "some completed, rest not started", statuses: []task.Status{co, ns, ns}, want: project.StatusInProgress},
		{name: "all completed", statuses: []task.Status{co, co, co}, want: project.StatusCompleted},
		{name: "held dominates in progress", statuses: []task.Status{co, he, ns}, want: project.StatusHeld},
		{name: "held dominates all completed", statuses: []task.Status{co, co, he}, want: project.StatusHeld},
		{name: "held dominates not started", statuses: []task.Status{he, ns, ns}, want: project.StatusHeld},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, project.Aggregate(tt.statuses))
		})
	}
}

func TestCurrentTask(t *testing.T) {
	p := project.New("Episode 12", "", nil)
	assert.Nil(t, p.CurrentTask())

	p.Tasks = []task.Task{
		{Stage: "a", Status: task.StatusCompleted},
		{Stage: "b", Status: task.StatusHeld},
		{Stage: "c", Status: task.StatusNotStarted},
	}
	cur := p.CurrentTask()
	if assert.NotNil(t, cur) {
		assert.Equal(t, "b", string(cur.Stage))
	}
	assert.Equal(t, project.StatusHeld, p.Recompute())
}

func TestParseStatus(t *testing.T) {
	for _, s := range project.Statuses {
		got, err := project.ParseStatus(string(s))
		assert.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := project.ParseStatus("archived")
	assert.Error(t, err)
}
