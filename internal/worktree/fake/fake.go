package fake

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/slok/opentown/internal/log"
	"github.com/slok/opentown/internal/worktree"
)

// ManagerConfig is the configuration for the fake worktree manager.
type ManagerConfig struct {
	// FailCreate makes Create fail for these paths.
	FailCreate map[string]bool
	// FailRemove makes Remove fail for these paths.
	FailRemove map[string]bool
	Logger     log.Logger
}

func (c *ManagerConfig) defaults() error {
	if c.FailCreate == nil {
		c.FailCreate = map[string]bool{}
	}
	if c.FailRemove == nil {
		c.FailRemove = map[string]bool{}
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "worktree.Fake"})
	return nil
}

// Manager is a fake implementation of worktree.Manager that keeps the worktrees in memory.
type Manager struct {
	worktrees  map[string]string
	failCreate map[string]bool
	failRemove map[string]bool
	mu         sync.Mutex
	logger     log.Logger
}

// NewManager creates a new fake worktree manager.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Manager{
		worktrees:  map[string]string{},
		failCreate: cfg.FailCreate,
		failRemove: cfg.FailRemove,
		logger:     cfg.Logger,
	}, nil
}

func (m *Manager) Create(ctx context.Context, path, branch, base string) (*worktree.Worktree, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failCreate[path] {
		return nil, fmt.Errorf("could not create worktree %s: fake failure", path)
	}

	if b, ok := m.worktrees[path]; ok {
		return &worktree.Worktree{Path: path, Branch: b}, nil
	}

	m.worktrees[path] = branch
	m.logger.Debugf("Fake worktree created at %s on branch %s", path, branch)
	return &worktree.Worktree{Path: path, Branch: branch}, nil
}

func (m *Manager) Remove(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failRemove[path] {
		return fmt.Errorf("could not remove worktree %s: fake failure", path)
	}
	if _, ok := m.worktrees[path]; !ok {
		return fmt.Errorf("could not remove worktree %s: not a working tree", path)
	}

	delete(m.worktrees, path)
	return nil
}

func (m *Manager) List(ctx context.Context) ([]worktree.Worktree, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wts := make([]worktree.Worktree, 0, len(m.worktrees))
	for p, b := range m.worktrees {
		wts = append(wts, worktree.Worktree{Path: p, Branch: b})
	}
	sort.Slice(wts, func(i, j int) bool { return wts[i].Path < wts[j].Path })

	return wts, nil
}

var _ worktree.Manager = &Manager{}
