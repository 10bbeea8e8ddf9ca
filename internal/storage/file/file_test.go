package file_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/opentown/internal/model"
	"github.com/slok/opentown/internal/storage/file"
)

const townDir = "/project/.town"

func newRepo(t *testing.T, fs afero.Fs) *file.Repository {
	t.Helper()
	repo, err := file.NewRepository(file.RepositoryConfig{TownDir: townDir, FS: fs})
	require.NoError(t, err)
	return repo
}

func TestRepositoryInit(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	repo := newRepo(t, fs)

	ok, err := repo.Initialized(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Init(ctx))

	ok, err = repo.Initialized(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	exists, err := afero.DirExists(fs, townDir+"/worktrees")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRepositoryMissingDocuments(t *testing.T) {
	tests := map[string]struct {
		get func(ctx context.Context, repo *file.Repository) error
	}{
		"Missing tasks should return not found.": {
			get: func(ctx context.Context, repo *file.Repository) error {
				_, err := repo.GetTaskList(ctx)
				return err
			},
		},
		"Missing state should return not found.": {
			get: func(ctx context.Context, repo *file.Repository) error {
				_, err := repo.GetState(ctx)
				return err
			},
		},
		"Missing describe should return not found.": {
			get: func(ctx context.Context, repo *file.Repository) error {
				_, err := repo.GetDescribe(ctx)
				return err
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := newRepo(t, afero.NewMemMapFs())
			require.NoError(t, repo.Init(ctx))

			err := test.get(ctx, repo)
			assert.ErrorIs(t, err, model.ErrNotFound)
		})
	}
}

func TestRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	repo := newRepo(t, fs)
	require.NoError(t, repo.Init(ctx))

	since := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tasks := model.TaskList{
		CurrentTask: model.StrPtr("task-001"),
		Tasks: []model.Task{
			{
				ID:     "task-001",
				Title:  "Add login",
				Status: model.TaskStatusInProgress,
				Phase:  model.PhaseImplementation,
				Subtasks: []model.Subtask{
					{ID: "001-a", Desc: "API", Assignee: model.StrPtr("task-001-eng-1"), Status: model.TaskStatusPending, Branch: model.StrPtr("task-001-eng-1")},
					{ID: "001-b", Desc: "UI", Status: model.TaskStatusPending},
				},
			},
			{ID: "task-002", Title: "Fix bug", Status: model.TaskStatusPending, Subtasks: []model.Subtask{}},
		},
	}
	state := model.PipelineState{
		Phase:       model.PhaseImplementation,
		ActiveSince: &since,
		CurrentTask: model.StrPtr("task-001"),
		Engineers: []model.Engineer{
			{ID: "task-001-eng-1", Status: model.EngineerStatusWorking, Branch: "task-001-eng-1", TmuxSession: "ot-task-001-eng-1", SubtaskID: model.StrPtr("001-a")},
		},
		QAStatus: model.QAStatusWaiting,
	}
	describe := model.NewDescribeDocument("Town")

	require.NoError(t, repo.SaveTaskList(ctx, tasks))
	require.NoError(t, repo.SaveState(ctx, state))
	require.NoError(t, repo.SaveDescribe(ctx, describe))

	gotTasks, err := repo.GetTaskList(ctx)
	require.NoError(t, err)
	assert.Equal(t, tasks, *gotTasks)

	gotState, err := repo.GetState(ctx)
	require.NoError(t, err)
	assert.Equal(t, state, *gotState)

	gotDescribe, err := repo.GetDescribe(ctx)
	require.NoError(t, err)
	assert.Equal(t, describe, gotDescribe)

	// No temporary files are left behind.
	entries, err := afero.ReadDir(fs, townDir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".tmp-"), e.Name())
	}
}

func TestRepositoryJSONFormat(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	repo := newRepo(t, fs)
	require.NoError(t, repo.Init(ctx))

	require.NoError(t, repo.SaveTaskList(ctx, model.TaskList{}))

	data, err := afero.ReadFile(fs, townDir+"/tasks.json")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"current_task\": null,\n  \"tasks\": []\n}\n", string(data))
}
