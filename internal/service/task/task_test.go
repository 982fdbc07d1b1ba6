package task_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainpipeline "github.com/alanyang/prodline/internal/domain/pipeline"
	domaintask "github.com/alanyang/prodline/internal/domain/task"
	"github.com/alanyang/prodline/internal/mocks"
	tasksvc "github.com/alanyang/prodline/internal/service/task"
)

func newTaskSvc(t *testing.T) (*tasksvc.Service, *mocks.MockTaskRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockTaskRepository(ctrl)
	return tasksvc.NewService(repo), repo
}

func TestGetByID(t *testing.T) {
	tests := []struct {
		name    string
		repoErr error
		wantErr error
	}{
		{name: "found"},
		{name: "not found", repoErr: domainpipeline.ErrNotFound, wantErr: domainpipeline.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTaskSvc(t)
			id := uuid.New()
			repo.EXPECT().GetByID(gomock.Any(), id).Return(domaintask.Task{ID: id}, tt.repoErr)

			got, err := svc.GetByID(context.Background(), id)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), "get task")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, id, got.ID)
		})
	}
}

func TestForAssignee(t *testing.T) {
	svc, repo := newTaskSvc(t)
	actor := uuid.New()
	want := []domaintask.Task{{ID: uuid.New(), AssignedTo: &actor, Status: domaintask.StatusHeld}}

	repo.EXPECT().List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, f domaintask.ListFilters) ([]domaintask.Task, error) {
			require.NotNil(t, f.AssignedTo)
			assert.Equal(t, actor, *f.AssignedTo)
			assert.Equal(t, []domaintask.Status{domaintask.StatusHeld}, f.Status)
			assert.Nil(t, f.ProjectID)
			return want, nil
		})

	got, err := svc.ForAssignee(context.Background(), actor, domaintask.StatusHeld)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestList_RejectsUnknownStatus(t *testing.T) {
	svc, _ := newTaskSvc(t)
	_, err := svc.List(context.Background(), domaintask.ListFilters{Status: []domaintask.Status{"blocked"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown status")
}

func TestList_RepoError(t *testing.T) {
	svc, repo := newTaskSvc(t)
	repo.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, errors.New("db error"))

	_, err := svc.List(context.Background(), domaintask.ListFilters{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list tasks")
}
