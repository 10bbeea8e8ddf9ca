package fake

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/slok/opentown/internal/log"
	"github.com/slok/opentown/internal/session"
)

// ManagerConfig is the configuration for the fake session manager.
type ManagerConfig struct {
	// FailCreate makes Create fail for these session names.
	FailCreate map[string]bool
	Logger     log.Logger
}

func (c *ManagerConfig) defaults() error {
	if c.FailCreate == nil {
		c.FailCreate = map[string]bool{}
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "session.Fake"})
	return nil
}

// Manager is a fake implementation of session.Manager that keeps the sessions in memory.
type Manager struct {
	sessions   map[string]string
	keys       map[string][]string
	failCreate map[string]bool
	mu         sync.Mutex
	logger     log.Logger
}

// NewManager creates a new fake session manager.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Manager{
		sessions:   map[string]string{},
		keys:       map[string][]string{},
		failCreate: cfg.FailCreate,
		logger:     cfg.Logger,
	}, nil
}

func (m *Manager) Create(ctx context.Context, name, dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failCreate[name] {
		return fmt.Errorf("could not create session %s: fake failure", name)
	}
	if _, ok := m.sessions[name]; !ok {
		m.sessions[name] = dir
	}
	return nil
}

func (m *Manager) Exists(ctx context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.sessions[name]
	return ok, nil
}

func (m *Manager) Attach(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[name]; !ok {
		return fmt.Errorf("could not attach to session %s: can't find session", name)
	}
	m.logger.Debugf("Fake attach to %s", name)
	return nil
}

func (m *Manager) Kill(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[name]; !ok {
		return fmt.Errorf("could not kill session %s: can't find session", name)
	}
	delete(m.sessions, name)
	delete(m.keys, name)
	return nil
}

func (m *Manager) List(ctx context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := []string{}
	for n := range m.sessions {
		if strings.HasPrefix(n, prefix) {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *Manager) SendKeys(ctx context.Context, name, keys string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[name]; !ok {
		return fmt.Errorf("could not send keys to session %s: can't find session", name)
	}
	m.keys[name] = append(m.keys[name], keys)
	return nil
}

// SentKeys returns the keys sent to a session.
func (m *Manager) SentKeys(name string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]string{}, m.keys[name]...)
}

// Dir returns the working directory a session was created on.
func (m *Manager) Dir(name string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.sessions[name]
}

var _ session.Manager = &Manager{}
