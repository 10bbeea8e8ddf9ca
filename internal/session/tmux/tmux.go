package tmux

import (
	"context"
	"fmt"
	"strings"

	"github.com/slok/opentown/internal/log"
	"github.com/slok/opentown/internal/session"
)

// ManagerConfig is the configuration of the tmux session manager.
type ManagerConfig struct {
	Runner CommandRunner
	Logger log.Logger
}

func (c *ManagerConfig) defaults() error {
	if c.Runner == nil {
		c.Runner = &ExecRunner{}
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "session.Tmux"})
	return nil
}

// Manager is a session.Manager backed by the tmux CLI.
type Manager struct {
	runner CommandRunner
	logger log.Logger
}

// NewManager returns a new tmux session manager.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Manager{
		runner: cfg.Runner,
		logger: cfg.Logger,
	}, nil
}

// Create uses: tmux new-session -d -s <name> -c <dir>
func (m *Manager) Create(ctx context.Context, name, dir string) error {
	exists, err := m.Exists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		m.logger.Debugf("Session %s already exists", name)
		return nil
	}

	args := []string{"new-session", "-d", "-s", name}
	if dir != "" {
		args = append(args, "-c", dir)
	}
	if _, err := m.runner.Run(ctx, args...); err != nil {
		return fmt.Errorf("could not create session %s: %w", name, err)
	}

	m.logger.Debugf("Session %s created on %s", name, dir)
	return nil
}

// Exists uses: tmux has-session -t =<name>
func (m *Manager) Exists(ctx context.Context, name string) (bool, error) {
	// has-session exits with non zero when the session is missing or there is no server.
	if _, err := m.runner.Run(ctx, "has-session", "-t", sessionTarget(name)); err != nil {
		return false, nil
	}
	return true, nil
}

// Attach uses: tmux attach-session -t =<name>
func (m *Manager) Attach(ctx context.Context, name string) error {
	if err := m.runner.RunInteractive(ctx, "attach-session", "-t", sessionTarget(name)); err != nil {
		return fmt.Errorf("could not attach to session %s: %w", name, err)
	}
	return nil
}

// Kill uses: tmux kill-session -t =<name>
func (m *Manager) Kill(ctx context.Context, name string) error {
	if _, err := m.runner.Run(ctx, "kill-session", "-t", sessionTarget(name)); err != nil {
		return fmt.Errorf("could not kill session %s: %w", name, err)
	}

	m.logger.Debugf("Session %s killed", name)
	return nil
}

// List uses: tmux list-sessions -F #{session_name}
func (m *Manager) List(ctx context.Context, prefix string) ([]string, error) {
	out, err := m.runner.Run(ctx, "list-sessions", "-F", "#{session_name}")
	if err != nil {
		// No server running means no sessions.
		return []string{}, nil
	}

	sessions := []string{}
	for _, s := range strings.Split(strings.TrimSpace(out), "\n") {
		s = strings.TrimSpace(s)
		if s == "" || !strings.HasPrefix(s, prefix) {
			continue
		}
		sessions = append(sessions, s)
	}

	return sessions, nil
}

// SendKeys uses: tmux send-keys -t =<name>: <keys> C-m
func (m *Manager) SendKeys(ctx context.Context, name, keys string) error {
	if _, err := m.runner.Run(ctx, "send-keys", "-t", sessionTarget(name)+":", keys, "C-m"); err != nil {
		return fmt.Errorf("could not send keys to session %s: %w", name, err)
	}
	return nil
}

var _ session.Manager = &Manager{}

// sessionTarget disables tmux prefix matching so ot-task-001-eng-1 never resolves to ot-task-001-eng-10.
func sessionTarget(name string) string {
	return "=" + name
}
