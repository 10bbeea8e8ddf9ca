package attach_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/opentown/internal/app/attach"
	"github.com/slok/opentown/internal/model"
	"github.com/slok/opentown/internal/storage/storagemock"
)

type mockSessions struct {
	mock.Mock
}

func (m *mockSessions) Create(ctx context.Context, name, dir string) error {
	return m.Called(name, dir).Error(0)
}

func (m *mockSessions) Exists(ctx context.Context, name string) (bool, error) {
	args := m.Called(name)
	return args.Bool(0), args.Error(1)
}

func (m *mockSessions) Attach(ctx context.Context, name string) error {
	return m.Called(name).Error(0)
}

func (m *mockSessions) Kill(ctx context.Context, name string) error {
	return m.Called(name).Error(0)
}

func (m *mockSessions) List(ctx context.Context, prefix string) ([]string, error) {
	args := m.Called(prefix)
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockSessions) SendKeys(ctx context.Context, name, keys string) error {
	return m.Called(name, keys).Error(0)
}

func TestServiceRun(t *testing.T) {
	state := &model.PipelineState{
		Phase: model.PhaseImplementation,
		Engineers: []model.Engineer{
			{ID: "task-001-eng-1", Status: model.EngineerStatusWorking, TmuxSession: "ot-task-001-eng-1"},
			{ID: "task-001-eng-2", Status: model.EngineerStatusWorking},
		},
	}

	tests := map[string]struct {
		id     string
		mock   func(ms *mockSessions)
		expErr error
	}{
		"Attaching to a running session should attach.": {
			id: "task-001-eng-1",
			mock: func(ms *mockSessions) {
				ms.On("Exists", "ot-task-001-eng-1").Once().Return(true, nil)
				ms.On("Attach", "ot-task-001-eng-1").Once().Return(nil)
			},
		},

		"An engineer without session name should use the configured prefix.": {
			id: "task-001-eng-2",
			mock: func(ms *mockSessions) {
				ms.On("Exists", "town-task-001-eng-2").Once().Return(true, nil)
				ms.On("Attach", "town-task-001-eng-2").Once().Return(nil)
			},
		},

		"A session not running should fail.": {
			id: "task-001-eng-1",
			mock: func(ms *mockSessions) {
				ms.On("Exists", "ot-task-001-eng-1").Once().Return(false, nil)
			},
			expErr: model.ErrNotFound,
		},

		"An unknown engineer should fail.": {
			id:     "task-001-eng-7",
			mock:   func(ms *mockSessions) {},
			expErr: model.ErrNotFound,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			mRepo := storagemock.NewMockRepository(t)
			mRepo.On("GetState", mock.Anything).Once().Return(state, nil)
			ms := &mockSessions{}
			test.mock(ms)

			svc, err := attach.NewService(attach.ServiceConfig{
				Repository: mRepo,
				Sessions:   ms,
				Config:     model.Config{SessionPrefix: "town-"},
			})
			require.NoError(err)

			err = svc.Run(context.Background(), attach.Request{EngineerID: test.id})
			if test.expErr != nil {
				assert.ErrorIs(err, test.expErr)
			} else {
				assert.NoError(err)
			}
			ms.AssertExpectations(t)
		})
	}
}
