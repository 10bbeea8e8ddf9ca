package storage_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/opentown/internal/log"
	"github.com/slok/opentown/internal/model"
	"github.com/slok/opentown/internal/storage"
	"github.com/slok/opentown/internal/storage/memory"
	"github.com/slok/opentown/internal/storage/storagemock"
)

func TestLoadPipeline(t *testing.T) {
	tests := map[string]struct {
		mock   func(m *storagemock.MockRepository)
		expErr error
		errAny bool
	}{
		"Loading both documents should work.": {
			mock: func(m *storagemock.MockRepository) {
				l := model.NewTaskList()
				s := model.NewPipelineState()
				m.On("GetTaskList", mock.Anything).Once().Return(&l, nil)
				m.On("GetState", mock.Anything).Once().Return(&s, nil)
			},
		},

		"Missing tasks should be reported as not initialized.": {
			mock: func(m *storagemock.MockRepository) {
				m.On("GetTaskList", mock.Anything).Once().Return(nil, fmt.Errorf("tasks: %w", model.ErrNotFound))
			},
			expErr: model.ErrNotInitialized,
		},

		"Missing state should be reported as not initialized.": {
			mock: func(m *storagemock.MockRepository) {
				l := model.NewTaskList()
				m.On("GetTaskList", mock.Anything).Once().Return(&l, nil)
				m.On("GetState", mock.Anything).Once().Return(nil, fmt.Errorf("state: %w", model.ErrNotFound))
			},
			expErr: model.ErrNotInitialized,
		},

		"Other errors should be returned as they are.": {
			mock: func(m *storagemock.MockRepository) {
				m.On("GetTaskList", mock.Anything).Once().Return(nil, fmt.Errorf("boom"))
			},
			errAny: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			m := storagemock.NewMockRepository(t)
			test.mock(m)

			tasks, state, err := storage.LoadPipeline(context.Background(), m)
			switch {
			case test.expErr != nil:
				assert.ErrorIs(t, err, test.expErr)
			case test.errAny:
				assert.Error(t, err)
				assert.NotErrorIs(t, err, model.ErrNotInitialized)
			default:
				require.NoError(t, err)
				assert.NotNil(t, tasks)
				assert.NotNil(t, state)
			}
		})
	}
}

type failingEvents struct{ storage.EventRepository }

func (failingEvents) AppendEvent(context.Context, model.Event) error { return fmt.Errorf("boom") }

func TestRecordEvent(t *testing.T) {
	ctx := context.Background()
	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(t, err)

	storage.RecordEvent(ctx, repo, log.Noop, model.Event{Kind: model.EventKindTaskStarted, TaskID: "task-001"})
	events, err := repo.ListEvents(ctx, storage.ListEventsOpts{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].CreatedAt.IsZero())
	assert.NotEmpty(t, events[0].ID)

	// Failures and missing journals are ignored.
	storage.RecordEvent(ctx, failingEvents{}, log.Noop, model.Event{Kind: model.EventKindTaskStarted})
	storage.RecordEvent(ctx, nil, log.Noop, model.Event{Kind: model.EventKindTaskStarted})
}
