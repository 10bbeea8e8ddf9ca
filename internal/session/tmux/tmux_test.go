package tmux_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/opentown/internal/session/tmux"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, args ...string) (string, error) {
	ret := m.Called(args)
	return ret.String(0), ret.Error(1)
}

func (m *mockRunner) RunInteractive(ctx context.Context, args ...string) error {
	ret := m.Called(args)
	return ret.Error(0)
}

func TestManager(t *testing.T) {
	tests := map[string]struct {
		mock   func(m *mockRunner)
		run    func(ctx context.Context, t *testing.T, mgr *tmux.Manager) error
		expErr bool
	}{
		"Creating a missing session should create it on the directory.": {
			mock: func(m *mockRunner) {
				m.On("Run", []string{"has-session", "-t", "=ot-task-001-eng-1"}).Once().Return("", fmt.Errorf("can't find session"))
				m.On("Run", []string{"new-session", "-d", "-s", "ot-task-001-eng-1", "-c", "/wt/task-001-eng-1"}).Once().Return("", nil)
			},
			run: func(ctx context.Context, t *testing.T, mgr *tmux.Manager) error {
				return mgr.Create(ctx, "ot-task-001-eng-1", "/wt/task-001-eng-1")
			},
		},

		"Creating an existing session should keep it.": {
			mock: func(m *mockRunner) {
				m.On("Run", []string{"has-session", "-t", "=ot-task-001-eng-1"}).Once().Return("", nil)
			},
			run: func(ctx context.Context, t *testing.T, mgr *tmux.Manager) error {
				return mgr.Create(ctx, "ot-task-001-eng-1", "/wt/task-001-eng-1")
			},
		},

		"Checking a session should not match other sessions by prefix.": {
			mock: func(m *mockRunner) {
				// Only ot-task-001-eng-10 exists, an exact target doesn't resolve to it.
				m.On("Run", []string{"has-session", "-t", "=ot-task-001-eng-1"}).Once().Return("", fmt.Errorf("can't find session: =ot-task-001-eng-1"))
			},
			run: func(ctx context.Context, t *testing.T, mgr *tmux.Manager) error {
				exists, err := mgr.Exists(ctx, "ot-task-001-eng-1")
				require.NoError(t, err)
				assert.False(t, exists)
				return nil
			},
		},

		"Failing session creation should fail.": {
			mock: func(m *mockRunner) {
				m.On("Run", []string{"has-session", "-t", "=s"}).Once().Return("", fmt.Errorf("no server"))
				m.On("Run", []string{"new-session", "-d", "-s", "s"}).Once().Return("", fmt.Errorf("boom"))
			},
			run: func(ctx context.Context, t *testing.T, mgr *tmux.Manager) error {
				return mgr.Create(ctx, "s", "")
			},
			expErr: true,
		},

		"Listing should filter by prefix.": {
			mock: func(m *mockRunner) {
				m.On("Run", []string{"list-sessions", "-F", "#{session_name}"}).Once().Return("main\not-task-001-eng-1\not-task-001-eng-2\nother\n", nil)
			},
			run: func(ctx context.Context, t *testing.T, mgr *tmux.Manager) error {
				got, err := mgr.List(ctx, "ot-")
				require.NoError(t, err)
				assert.Equal(t, []string{"ot-task-001-eng-1", "ot-task-001-eng-2"}, got)
				return nil
			},
		},

		"Listing without server should return no sessions.": {
			mock: func(m *mockRunner) {
				m.On("Run", []string{"list-sessions", "-F", "#{session_name}"}).Once().Return("", fmt.Errorf("no server running"))
			},
			run: func(ctx context.Context, t *testing.T, mgr *tmux.Manager) error {
				got, err := mgr.List(ctx, "ot-")
				require.NoError(t, err)
				assert.Empty(t, got)
				return nil
			},
		},

		"Killing a session should kill it.": {
			mock: func(m *mockRunner) {
				m.On("Run", []string{"kill-session", "-t", "=s"}).Once().Return("", nil)
			},
			run: func(ctx context.Context, t *testing.T, mgr *tmux.Manager) error {
				return mgr.Kill(ctx, "s")
			},
		},

		"Failing kill should fail.": {
			mock: func(m *mockRunner) {
				m.On("Run", []string{"kill-session", "-t", "=s"}).Once().Return("", fmt.Errorf("can't find session"))
			},
			run: func(ctx context.Context, t *testing.T, mgr *tmux.Manager) error {
				return mgr.Kill(ctx, "s")
			},
			expErr: true,
		},

		"Sending keys should end with enter.": {
			mock: func(m *mockRunner) {
				m.On("Run", []string{"send-keys", "-t", "=s:", "opencode", "C-m"}).Once().Return("", nil)
			},
			run: func(ctx context.Context, t *testing.T, mgr *tmux.Manager) error {
				return mgr.SendKeys(ctx, "s", "opencode")
			},
		},

		"Attaching should run interactively.": {
			mock: func(m *mockRunner) {
				m.On("RunInteractive", []string{"attach-session", "-t", "=s"}).Once().Return(nil)
			},
			run: func(ctx context.Context, t *testing.T, mgr *tmux.Manager) error {
				return mgr.Attach(ctx, "s")
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			m := &mockRunner{}
			test.mock(m)

			mgr, err := tmux.NewManager(tmux.ManagerConfig{Runner: m})
			require.NoError(t, err)

			err = test.run(context.Background(), t, mgr)
			if test.expErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			m.AssertExpectations(t)
		})
	}
}
