package git_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/opentown/internal/worktree"
	"github.com/slok/opentown/internal/worktree/git"
)

// scriptedRunner returns the configured result for each command line and records the calls.
type scriptedRunner struct {
	results map[string]result
	calls   []string
}

type result struct {
	out string
	err error
}

func (s *scriptedRunner) Run(ctx context.Context, args ...string) (string, error) {
	cmd := strings.Join(args, " ")
	s.calls = append(s.calls, cmd)
	r, ok := s.results[cmd]
	if !ok {
		return "", nil
	}
	return r.out, r.err
}

const porcelain = `worktree /repo
HEAD abc123
branch refs/heads/main

worktree /repo/.town/worktrees/task-001-eng-1
HEAD def456
branch refs/heads/task-001-eng-1

worktree /repo/.town/worktrees/detached
HEAD 0123ab
detached
`

func TestManagerCreate(t *testing.T) {
	tests := map[string]struct {
		results  map[string]result
		path     string
		branch   string
		base     string
		expWT    *worktree.Worktree
		expCalls []string
		expErr   bool
	}{
		"Creating a new worktree should create the branch from base.": {
			path:   "/repo/.town/worktrees/task-001-eng-2",
			branch: "task-001-eng-2",
			base:   "main",
			results: map[string]result{
				"worktree list --porcelain": {out: porcelain},
			},
			expWT: &worktree.Worktree{Path: "/repo/.town/worktrees/task-001-eng-2", Branch: "task-001-eng-2"},
			expCalls: []string{
				"worktree list --porcelain",
				"worktree add -b task-001-eng-2 /repo/.town/worktrees/task-001-eng-2 main",
			},
		},

		"Creating a worktree without base should use HEAD.": {
			path:   "/repo/.town/worktrees/task-001-eng-2",
			branch: "task-001-eng-2",
			expWT:  &worktree.Worktree{Path: "/repo/.town/worktrees/task-001-eng-2", Branch: "task-001-eng-2"},
			expCalls: []string{
				"worktree list --porcelain",
				"worktree add -b task-001-eng-2 /repo/.town/worktrees/task-001-eng-2",
			},
		},

		"Creating a worktree on an existing branch should check it out.": {
			path:   "/repo/.town/worktrees/task-001-eng-2",
			branch: "task-001-eng-2",
			base:   "main",
			results: map[string]result{
				"worktree add -b task-001-eng-2 /repo/.town/worktrees/task-001-eng-2 main": {err: fmt.Errorf("branch exists")},
			},
			expWT: &worktree.Worktree{Path: "/repo/.town/worktrees/task-001-eng-2", Branch: "task-001-eng-2"},
			expCalls: []string{
				"worktree list --porcelain",
				"worktree add -b task-001-eng-2 /repo/.town/worktrees/task-001-eng-2 main",
				"worktree add /repo/.town/worktrees/task-001-eng-2 task-001-eng-2",
			},
		},

		"Creating an already registered worktree should reuse it.": {
			path:   "/repo/.town/worktrees/task-001-eng-1",
			branch: "task-001-eng-1",
			base:   "main",
			results: map[string]result{
				"worktree list --porcelain": {out: porcelain},
			},
			expWT:    &worktree.Worktree{Path: "/repo/.town/worktrees/task-001-eng-1", Branch: "task-001-eng-1"},
			expCalls: []string{"worktree list --porcelain"},
		},

		"Failing both creations should fail.": {
			path:   "/repo/.town/worktrees/task-001-eng-2",
			branch: "task-001-eng-2",
			base:   "main",
			results: map[string]result{
				"worktree add -b task-001-eng-2 /repo/.town/worktrees/task-001-eng-2 main": {err: fmt.Errorf("boom")},
				"worktree add /repo/.town/worktrees/task-001-eng-2 task-001-eng-2":         {err: fmt.Errorf("boom")},
			},
			expErr: true,
		},

		"Failing listing should fail.": {
			path:   "/repo/.town/worktrees/task-001-eng-2",
			branch: "task-001-eng-2",
			results: map[string]result{
				"worktree list --porcelain": {err: fmt.Errorf("not a git repository")},
			},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			runner := &scriptedRunner{results: test.results}
			m, err := git.NewManager(git.ManagerConfig{Runner: runner})
			require.NoError(err)

			wt, err := m.Create(context.Background(), test.path, test.branch, test.base)
			if test.expErr {
				assert.Error(err)
				return
			}
			require.NoError(err)
			assert.Equal(test.expWT, wt)
			assert.Equal(test.expCalls, runner.calls)
		})
	}
}

func TestManagerList(t *testing.T) {
	runner := &scriptedRunner{results: map[string]result{"worktree list --porcelain": {out: porcelain}}}
	m, err := git.NewManager(git.ManagerConfig{Runner: runner})
	require.NoError(t, err)

	wts, err := m.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []worktree.Worktree{
		{Path: "/repo", Branch: "main"},
		{Path: "/repo/.town/worktrees/task-001-eng-1", Branch: "task-001-eng-1"},
		{Path: "/repo/.town/worktrees/detached"},
	}, wts)
}

func TestManagerRemove(t *testing.T) {
	tests := map[string]struct {
		results map[string]result
		expErr  bool
	}{
		"Removing should force the removal.": {},
		"Failing removal should fail.": {
			results: map[string]result{
				"worktree remove --force /repo/.town/worktrees/task-001-eng-1": {err: fmt.Errorf("boom")},
			},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			runner := &scriptedRunner{results: test.results}
			m, err := git.NewManager(git.ManagerConfig{Runner: runner})
			require.NoError(t, err)

			err = m.Remove(context.Background(), "/repo/.town/worktrees/task-001-eng-1")
			if test.expErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, []string{"worktree remove --force /repo/.town/worktrees/task-001-eng-1"}, runner.calls)
		})
	}
}
