package project_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/alanyang/prodline/internal/domain/event"
	domainpipeline "github.com/alanyang/prodline/internal/domain/pipeline"
	domainproject "github.com/alanyang/prodline/internal/domain/project"
	"github.com/alanyang/prodline/internal/domain/stage"
	domaintask "github.com/alanyang/prodline/internal/domain/task"
	"github.com/alanyang/prodline/internal/mocks"
	projectsvc "github.com/alanyang/prodline/internal/service/project"
)

type fakeCreator struct {
	tasks []domaintask.Task
	err   error
	calls []uuid.UUID
}

func (f *fakeCreator) CreatePipeline(_ context.Context, projectID uuid.UUID) ([]domaintask.Task, error) {
	f.calls = append(f.calls, projectID)
	return f.tasks, f.err
}

func newProjectSvc(t *testing.T, creator *fakeCreator) (*projectsvc.Service, *mocks.MockProjectRepository, *mocks.MockEventBus) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockProjectRepository(ctrl)
	bus := mocks.NewMockEventBus(ctrl)
	return projectsvc.NewService(repo, creator, bus), repo, bus
}

func pipelineTasks(projectID uuid.UUID) []domaintask.Task {
	now := time.Now().UTC()
	tasks := make([]domaintask.Task, 0, stage.Default.Len())
	for i, id := range stage.Default {
		tasks = append(tasks, domaintask.New(projectID, id, i, now))
	}
	tasks[0].Activate(now)
	return tasks
}

func TestCreate_Success(t *testing.T) {
	creator := &fakeCreator{}
	svc, repo, _ := newProjectSvc(t, creator)

	repo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p domainproject.Project) (domainproject.Project, error) {
			creator.tasks = pipelineTasks(p.ID)
			return p, nil
		})

	got, err := svc.Create(context.Background(), "Episode 4", "b-roll heavy", nil)
	require.NoError(t, err)
	assert.Equal(t, "Episode 4", got.Title)
	assert.Len(t, got.Tasks, stage.Default.Len())
	assert.Equal(t, domainproject.StatusInProgress, got.Status)
	assert.Equal(t, []uuid.UUID{got.ID}, creator.calls)
}

func TestCreate_StoresTrimmedTitle(t *testing.T) {
	creator := &fakeCreator{}
	svc, repo, _ := newProjectSvc(t, creator)

	repo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p domainproject.Project) (domainproject.Project, error) {
			assert.Equal(t, "Episode 5", p.Title)
			creator.tasks = pipelineTasks(p.ID)
			return p, nil
		})

	got, err := svc.Create(context.Background(), "  Episode 5\t\n", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "Episode 5", got.Title)
}

func TestCreate_RepoError(t *testing.T) {
	creator := &fakeCreator{}
	svc, repo, _ := newProjectSvc(t, creator)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(domainproject.Project{}, errors.New("db error"))

	_, err := svc.Create(context.Background(), "x", "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create project")
	assert.Empty(t, creator.calls)
}

func TestCreate_RejectsBlankTitle(t *testing.T) {
	svc, _, _ := newProjectSvc(t, &fakeCreator{})

	_, err := svc.Create(context.Background(), "   ", "", nil)
	require.ErrorIs(t, err, domainpipeline.ErrInvalidInput)
}

func TestCreate_PipelineError(t *testing.T) {
	creator := &fakeCreator{err: domainpipeline.ErrInvariantViolation}
	svc, repo, _ := newProjectSvc(t, creator)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p domainproject.Project) (domainproject.Project, error) { return p, nil })

	got, err := svc.Create(context.Background(), "x", "", nil)
	require.ErrorIs(t, err, domainpipeline.ErrInvariantViolation)
	assert.NotEqual(t, uuid.Nil, got.ID, "persisted project is still returned")
}

func TestGetByID_NotFound(t *testing.T) {
	svc, repo, _ := newProjectSvc(t, &fakeCreator{})
	projectID := uuid.New()
	repo.EXPECT().GetByID(gomock.Any(), projectID).Return(domainproject.Project{}, domainpipeline.ErrNotFound)

	_, err := svc.GetByID(context.Background(), projectID)
	require.ErrorIs(t, err, domainpipeline.ErrNotFound)
	assert.Contains(t, err.Error(), "get project")
}

func TestDelete_PublishesEvent(t *testing.T) {
	svc, repo, bus := newProjectSvc(t, &fakeCreator{})
	projectID := uuid.New()
	repo.EXPECT().Delete(gomock.Any(), projectID).Return(nil)
	bus.EXPECT().Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e event.Event) error {
			assert.Equal(t, event.TypeProjectDeleted, e.Type)
			assert.Equal(t, projectID, e.ProjectID)
			return nil
		})

	require.NoError(t, svc.Delete(context.Background(), projectID))
}

func TestGetProjectStatus(t *testing.T) {
	svc, repo, _ := newProjectSvc(t, &fakeCreator{})
	p := domainproject.New("Episode 9", "", nil)
	p.Tasks = pipelineTasks(p.ID)
	p.Tasks[0].Complete(time.Now())
	p.Tasks[1].Activate(time.Now())
	p.Tasks[1].Hold(time.Now())
	p.Recompute()
	repo.EXPECT().GetByID(gomock.Any(), p.ID).Return(p, nil)

	r, err := svc.GetProjectStatus(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, domainproject.StatusHeld, r.Status)
	assert.Equal(t, 1, r.CompletedStages)
	assert.Equal(t, stage.Default.Len(), r.TotalStages)
	require.NotNil(t, r.CurrentTask)
	assert.Equal(t, stage.Writing, r.CurrentTask.Stage)
}

func TestGetProjectStatus_NoTasks(t *testing.T) {
	svc, repo, _ := newProjectSvc(t, &fakeCreator{})
	p := domainproject.New("Empty", "", nil)
	repo.EXPECT().GetByID(gomock.Any(), p.ID).Return(p, nil)

	r, err := svc.GetProjectStatus(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, domainproject.StatusNotStarted, r.Status)
	assert.Nil(t, r.CurrentTask)
	assert.NotNil(t, r.Tasks)
}
