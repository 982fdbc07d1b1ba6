package pipeline_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyang/prodline/internal/domain/pipeline"
	"github.com/alanyang/prodline/internal/domain/project"
	"github.com/alanyang/prodline/internal/domain/stage"
	"github.com/alanyang/prodline/internal/domain/task"
)

var abc = stage.Catalog{"A", "B", "C"}

var t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

// ── helpers ───────────────────────────────────────────────────────────────────

// newPipeline instantiates cat and assigns every task to its own actor.
func newPipeline(t *testing.T, cat stage.Catalog) (*project.Project, []uuid.UUID) {
	t.Helper()
	p := project.New("Episode", "", nil)
	_, err := pipeline.Instantiate(&p, cat, t0)
	require.NoError(t, err)

	actors := make([]uuid.UUID, len(p.Tasks))
	for i := range p.Tasks {
		actors[i] = uuid.New()
		p.Tasks[i].Assign(actors[i], t0)
	}
	return &p, actors
}

func statuses(p *project.Project) []task.Status {
	out := make([]task.Status, len(p.Tasks))
	for i, t := range p.Tasks {
		out[i] = t.Status
	}
	return out
}

// ── Instantiate ──────────────────────────────────────────────────────────────

func TestInstantiate(t *testing.T) {
	p := project.New("Episode", "", nil)
	tasks, err := pipeline.Instantiate(&p, stage.Default, t0)
	require.NoError(t, err)

	require.Len(t, tasks, stage.Default.Len())
	for i, tk := range tasks {
		assert.Equal(t, stage.Default[i], tk.Stage, "tasks follow catalog order")
		assert.Equal(t, i, tk.Position)
		assert.Nil(t, tk.AssignedTo)
		if i == 0 {
			assert.Equal(t, task.StatusInProgress, tk.Status)
			require.NotNil(t, tk.StartDate)
			assert.Equal(t, t0, *tk.StartDate)
			continue
		}
		assert.Equal(t, task.StatusNotStarted, tk.Status)
		assert.Nil(t, tk.StartDate)
	}
	assert.Equal(t, project.StatusInProgress, p.Status)
}

func TestInstantiate_RejectsExistingTasks(t *testing.T) {
	p, _ := newPipeline(t, abc)
	before := statuses(p)

	_, err := pipeline.Instantiate(p, abc, t0)
	require.ErrorIs(t, err, pipeline.ErrInvariantViolation)
	assert.Equal(t, before, statuses(p))
}

func TestInstantiate_RejectsBadCatalog(t *testing.T) {
	p := project.New("Episode", "", nil)
	_, err := pipeline.Instantiate(&p, stage.Catalog{}, t0)
	require.ErrorIs(t, err, pipeline.ErrInvariantViolation)
	assert.Empty(t, p.Tasks)
}

// ── Apply ────────────────────────────────────────────────────────────────────

func TestApply_Scenario(t *testing.T) {
	p, actors := newPipeline(t, abc)
	a, b, c := p.Tasks[0], p.Tasks[1], p.Tasks[2]
	require.Equal(t, project.StatusInProgress, p.Status)

	t1 := t0.Add(time.Hour)
	out, err := pipeline.Apply(p, abc, a.ID, task.StatusCompleted, actors[0], t1)
	require.NoError(t, err)
	assert.Equal(t, []task.Status{task.StatusCompleted, task.StatusInProgress, task.StatusNotStarted}, statuses(p))
	require.NotNil(t, p.Tasks[0].EndDate)
	assert.Equal(t, t1, *p.Tasks[0].EndDate)
	require.NotNil(t, out.Activated)
	assert.Equal(t, b.ID, out.Activated.ID)
	assert.Equal(t, t1, *out.Activated.StartDate)
	assert.Equal(t, project.StatusInProgress, out.ProjectStatus)
	assert.False(t, out.ProjectStatusChanged())

	out, err = pipeline.Apply(p, abc, b.ID, task.StatusHeld, actors[1], t0.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Nil(t, out.Activated)
	assert.Equal(t, project.StatusHeld, p.Status)
	assert.True(t, out.ProjectStatusChanged())

	out, err = pipeline.Apply(p, abc, b.ID, task.StatusInProgress, actors[1], t0.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, project.StatusInProgress, p.Status)
	assert.Equal(t, t1, *p.Tasks[1].StartDate, "resume keeps original start date")
	assert.Equal(t, task.StatusHeld, out.From)

	out, err = pipeline.Apply(p, abc, b.ID, task.StatusCompleted, actors[1], t0.Add(4*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, out.Activated)
	assert.Equal(t, c.ID, out.Activated.ID)

	out, err = pipeline.Apply(p, abc, c.ID, task.StatusCompleted, actors[2], t0.Add(5*time.Hour))
	require.NoError(t, err)
	assert.Nil(t, out.Activated, "last stage has no successor")
	assert.Equal(t, project.StatusCompleted, p.Status)
	assert.True(t, out.ProjectStatusChanged())
}

func TestApply_HoldDominatesCompletedTasks(t *testing.T) {
	p, actors := newPipeline(t, abc)
	for i := 0; i < 2; i++ {
		_, err := pipeline.Apply(p, abc, p.Tasks[i].ID, task.StatusCompleted, actors[i], t0)
		require.NoError(t, err)
	}

	_, err := pipeline.Apply(p, abc, p.Tasks[2].ID, task.StatusHeld, actors[2], t0)
	require.NoError(t, err)
	assert.Equal(t, project.StatusHeld, p.Status)
}

func TestApply_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, p *project.Project, actors []uuid.UUID)
		taskIdx int
		to      task.Status
		actor   func(actors []uuid.UUID) uuid.UUID
		wantErr error
	}{
		{
			name:    "complete an already completed task",
			prepare: completeFirst,
			taskIdx: 0,
			to:      task.StatusCompleted,
			actor:   func(a []uuid.UUID) uuid.UUID { return a[0] },
			wantErr: pipeline.ErrInvalidTransition,
		},
		{
			name:    "external activation of a not-started task",
			taskIdx: 1,
			to:      task.StatusInProgress,
			actor:   func(a []uuid.UUID) uuid.UUID { return a[1] },
			wantErr: pipeline.ErrInvalidTransition,
		},
		{
			name:    "complete a not-started task",
			taskIdx: 2,
			to:      task.StatusCompleted,
			actor:   func(a []uuid.UUID) uuid.UUID { return a[2] },
			wantErr: pipeline.ErrInvalidTransition,
		},
		{
			name:    "hold a not-started task",
			taskIdx: 2,
			to:      task.StatusHeld,
			actor:   func(a []uuid.UUID) uuid.UUID { return a[2] },
			wantErr: pipeline.ErrInvalidTransition,
		},
		{
			name: "complete a held task without resuming",
			prepare: func(t *testing.T, p *project.Project, actors []uuid.UUID) {
				_, err := pipeline.Apply(p, abc, p.Tasks[0].ID, task.StatusHeld, actors[0], t0)
				require.NoError(t, err)
			},
			taskIdx: 0,
			to:      task.StatusCompleted,
			actor:   func(a []uuid.UUID) uuid.UUID { return a[0] },
			wantErr: pipeline.ErrInvalidTransition,
		},
		{
			name:    "unknown target status",
			taskIdx: 0,
			to:      task.Status("paused"),
			actor:   func(a []uuid.UUID) uuid.UUID { return a[0] },
			wantErr: pipeline.ErrInvalidTransition,
		},
		{
			name:    "actor is not the assignee",
			taskIdx: 0,
			to:      task.StatusCompleted,
			actor:   func(a []uuid.UUID) uuid.UUID { return a[1] },
			wantErr: pipeline.ErrPermissionDenied,
		},
		{
			name: "unassigned task cannot be completed",
			prepare: func(t *testing.T, p *project.Project, _ []uuid.UUID) {
				p.Tasks[0].Unassign(t0)
			},
			taskIdx: 0,
			to:      task.StatusCompleted,
			actor:   func(a []uuid.UUID) uuid.UUID { return a[0] },
			wantErr: pipeline.ErrPermissionDenied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, actors := newPipeline(t, abc)
			if tt.prepare != nil {
				tt.prepare(t, p, actors)
			}
			before := statuses(p)
			beforeStatus := p.Status

			_, err := pipeline.Apply(p, abc, p.Tasks[tt.taskIdx].ID, tt.to, tt.actor(actors), t0.Add(time.Hour))
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before, statuses(p), "no mutation on rejection")
			assert.Equal(t, beforeStatus, p.Status)
		})
	}
}

func TestApply_UnknownTask(t *testing.T) {
	p, actors := newPipeline(t, abc)
	_, err := pipeline.Apply(p, abc, uuid.New(), task.StatusCompleted, actors[0], t0)
	require.ErrorIs(t, err, pipeline.ErrNotFound)
}

func TestSuccessor_UsesCatalogOrderNotStatus(t *testing.T) {
	p, _ := newPipeline(t, abc)
	// Scramble storage order: successor must still be the next catalog stage.
	p.Tasks[0], p.Tasks[2] = p.Tasks[2], p.Tasks[0]

	var a task.Task
	for _, tk := range p.Tasks {
		if tk.Stage == "A" {
			a = tk
		}
	}
	next := pipeline.Successor(p, abc, a)
	require.NotNil(t, next)
	assert.Equal(t, stage.ID("B"), next.Stage)

	var c task.Task
	for _, tk := range p.Tasks {
		if tk.Stage == "C" {
			c = tk
		}
	}
	assert.Nil(t, pipeline.Successor(p, abc, c))
}

// ── Assign ───────────────────────────────────────────────────────────────────

func TestAssign(t *testing.T) {
	p, actors := newPipeline(t, abc)
	newcomer := uuid.New()

	got, err := pipeline.Assign(p, p.Tasks[1].ID, &newcomer, t0)
	require.NoError(t, err)
	assert.True(t, got.IsAssignedTo(newcomer))

	got, err = pipeline.Assign(p, p.Tasks[1].ID, nil, t0)
	require.NoError(t, err)
	assert.Nil(t, got.AssignedTo)

	completeFirst(t, p, actors)
	_, err = pipeline.Assign(p, p.Tasks[0].ID, &newcomer, t0)
	require.ErrorIs(t, err, pipeline.ErrInvalidTransition)

	_, err = pipeline.Assign(p, uuid.New(), &newcomer, t0)
	require.ErrorIs(t, err, pipeline.ErrNotFound)
}

func completeFirst(t *testing.T, p *project.Project, actors []uuid.UUID) {
	t.Helper()
	_, err := pipeline.Apply(p, abc, p.Tasks[0].ID, task.StatusCompleted, actors[0], t0)
	require.NoError(t, err)
}
