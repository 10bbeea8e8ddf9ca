package git

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/slok/opentown/internal/log"
	"github.com/slok/opentown/internal/worktree"
)

// ManagerConfig is the configuration of the git worktree manager.
type ManagerConfig struct {
	// Runner runs the git commands, by default on RepoDir.
	Runner  CommandRunner
	RepoDir string
	Logger  log.Logger
}

func (c *ManagerConfig) defaults() error {
	if c.Runner == nil {
		if c.RepoDir == "" {
			return fmt.Errorf("runner or repo dir is required")
		}
		c.Runner = NewExecRunner(c.RepoDir)
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "worktree.Git"})
	return nil
}

// Manager is a worktree.Manager backed by the git CLI.
type Manager struct {
	runner CommandRunner
	logger log.Logger
}

// NewManager returns a new git worktree manager.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Manager{
		runner: cfg.Runner,
		logger: cfg.Logger,
	}, nil
}

func (m *Manager) Create(ctx context.Context, path, branch, base string) (*worktree.Worktree, error) {
	existing, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, wt := range existing {
		if samePath(wt.Path, path) {
			m.logger.Debugf("Reusing registered worktree %s (%s)", wt.Path, wt.Branch)
			if wt.Branch == "" {
				wt.Branch = branch
			}
			return &wt, nil
		}
	}

	// git worktree add -b <branch> <path> [base]
	args := []string{"worktree", "add", "-b", branch, path}
	if base != "" {
		args = append(args, base)
	}
	_, newErr := m.runner.Run(ctx, args...)
	if newErr != nil {
		// The branch may exist already, check it out instead.
		m.logger.Debugf("Could not create branch %s, checking out existing branch: %s", branch, newErr)
		_, err := m.runner.Run(ctx, "worktree", "add", path, branch)
		if err != nil {
			return nil, fmt.Errorf("could not create worktree %s: %w", path, err)
		}
	}

	m.logger.Infof("Worktree created at %s on branch %s", path, branch)
	return &worktree.Worktree{Path: path, Branch: branch}, nil
}

func (m *Manager) Remove(ctx context.Context, path string) error {
	_, err := m.runner.Run(ctx, "worktree", "remove", "--force", path)
	if err != nil {
		return fmt.Errorf("could not remove worktree %s: %w", path, err)
	}

	m.logger.Debugf("Worktree removed: %s", path)
	return nil
}

func (m *Manager) List(ctx context.Context) ([]worktree.Worktree, error) {
	out, err := m.runner.Run(ctx, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("could not list worktrees: %w", err)
	}

	return parseWorktreeList(out), nil
}

// parseWorktreeList parses the output of 'git worktree list --porcelain':
//
//	worktree /home/user/repo
//	HEAD abc123
//	branch refs/heads/main
//
//	worktree /home/user/repo/.town/worktrees/task-001-eng-1
//	HEAD def456
//	branch refs/heads/task-001-eng-1
func parseWorktreeList(output string) []worktree.Worktree {
	wts := []worktree.Worktree{}
	var current *worktree.Worktree

	flush := func() {
		if current != nil {
			wts = append(wts, *current)
			current = nil
		}
	}

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "worktree "):
			flush()
			current = &worktree.Worktree{Path: strings.TrimPrefix(line, "worktree ")}
		case strings.HasPrefix(line, "branch ") && current != nil:
			current.Branch = strings.TrimPrefix(strings.TrimPrefix(line, "branch "), "refs/heads/")
		case line == "":
			flush()
		}
	}
	flush()

	return wts
}

func samePath(a, b string) bool {
	aa, err := filepath.Abs(a)
	if err != nil {
		aa = a
	}
	bb, err := filepath.Abs(b)
	if err != nil {
		bb = b
	}
	return filepath.Clean(aa) == filepath.Clean(bb)
}

var _ worktree.Manager = &Manager{}
