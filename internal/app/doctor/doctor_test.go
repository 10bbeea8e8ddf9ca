package doctor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/opentown/internal/app/doctor"
	"github.com/slok/opentown/internal/model"
)

type gitRunner struct {
	out string
	err error
}

func (g gitRunner) Run(ctx context.Context, args ...string) (string, error) { return g.out, g.err }

type initChecker bool

func (i initChecker) Initialized(ctx context.Context) (bool, error) { return bool(i), nil }

func lookPath(available ...string) func(string) (string, error) {
	return func(file string) (string, error) {
		for _, a := range available {
			if a == file {
				return "/usr/bin/" + file, nil
			}
		}
		return "", errors.New("not found")
	}
}

func TestServiceRun(t *testing.T) {
	tests := map[string]struct {
		git         gitRunner
		initialized bool
		editor      string
		available   []string
		expResults  map[string]model.CheckStatus
	}{
		"Everything available should pass.": {
			git:         gitRunner{out: "true"},
			initialized: true,
			editor:      "vim -p",
			available:   []string{"git", "tmux", "vim"},
			expResults: map[string]model.CheckStatus{
				"git_binary":       model.CheckStatusOK,
				"tmux_binary":      model.CheckStatusOK,
				"git_repository":   model.CheckStatusOK,
				"town_initialized": model.CheckStatusOK,
				"editor":           model.CheckStatusOK,
			},
		},

		"Missing git should fail and skip the repository check.": {
			available: []string{"tmux"},
			expResults: map[string]model.CheckStatus{
				"git_binary":       model.CheckStatusError,
				"tmux_binary":      model.CheckStatusOK,
				"town_initialized": model.CheckStatusWarning,
			},
		},

		"Missing tmux and editor should warn.": {
			git:         gitRunner{out: "true"},
			initialized: true,
			editor:      "code --wait",
			available:   []string{"git"},
			expResults: map[string]model.CheckStatus{
				"git_binary":       model.CheckStatusOK,
				"tmux_binary":      model.CheckStatusWarning,
				"git_repository":   model.CheckStatusOK,
				"town_initialized": model.CheckStatusOK,
				"editor":           model.CheckStatusWarning,
			},
		},

		"Outside a git repository should fail.": {
			git:         gitRunner{err: errors.New("fatal: not a git repository")},
			initialized: true,
			available:   []string{"git", "tmux"},
			expResults: map[string]model.CheckStatus{
				"git_binary":       model.CheckStatusOK,
				"tmux_binary":      model.CheckStatusOK,
				"git_repository":   model.CheckStatusError,
				"town_initialized": model.CheckStatusOK,
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			svc, err := doctor.NewService(doctor.ServiceConfig{
				Git:         test.git,
				InitChecker: initChecker(test.initialized),
				Editor:      test.editor,
				LookPath:    lookPath(test.available...),
			})
			require.NoError(err)

			results := svc.Run(context.Background())
			got := map[string]model.CheckStatus{}
			for _, r := range results {
				got[r.ID] = r.Status
			}
			assert.Equal(test.expResults, got)
		})
	}
}
