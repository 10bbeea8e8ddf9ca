package history_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/opentown/internal/app/history"
	"github.com/slok/opentown/internal/model"
	"github.com/slok/opentown/internal/storage/memory"
)

func TestServiceRun(t *testing.T) {
	t0 := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	events := []model.Event{
		{ID: "01", Kind: model.EventKindTaskPlanned, TaskID: "task-001", CreatedAt: t0},
		{ID: "02", Kind: model.EventKindTaskPlanned, TaskID: "task-002", CreatedAt: t0.Add(time.Second)},
		{ID: "03", Kind: model.EventKindTaskStarted, TaskID: "task-001", CreatedAt: t0.Add(2 * time.Second)},
	}

	tests := map[string]struct {
		uninitialized bool
		req           history.Request
		expIDs        []string
		expErr        error
	}{
		"All the events should be listed newest first.": {
			expIDs: []string{"03", "02", "01"},
		},

		"Events should be filtered by task.": {
			req:    history.Request{TaskID: "task-001"},
			expIDs: []string{"03", "01"},
		},

		"Events should be limited.": {
			req:    history.Request{Limit: 1},
			expIDs: []string{"03"},
		},

		"A negative limit should fail.": {
			req:    history.Request{Limit: -1},
			expErr: model.ErrNotValid,
		},

		"An uninitialized project should fail.": {
			uninitialized: true,
			expErr:        model.ErrNotInitialized,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)
			ctx := context.Background()

			repo, err := memory.NewRepository(memory.RepositoryConfig{})
			require.NoError(err)
			if !test.uninitialized {
				require.NoError(repo.Init(ctx))
			}
			for _, e := range events {
				require.NoError(repo.AppendEvent(ctx, e))
			}

			svc, err := history.NewService(history.ServiceConfig{InitChecker: repo, Events: repo})
			require.NoError(err)

			got, err := svc.Run(ctx, test.req)
			if test.expErr != nil {
				assert.ErrorIs(err, test.expErr)
				return
			}
			require.NoError(err)

			gotIDs := []string{}
			for _, e := range got {
				gotIDs = append(gotIDs, e.ID)
			}
			assert.Equal(test.expIDs, gotIDs)
		})
	}
}
