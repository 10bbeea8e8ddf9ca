package editor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/slok/opentown/internal/log"
)

// DefaultEditor is used when nothing else is configured.
const DefaultEditor = "nano"

// Resolve returns the editor command: the configured one, then $VISUAL, then $EDITOR and
// finally DefaultEditor.
func Resolve(configured string, getenv func(string) string) string {
	if getenv == nil {
		getenv = os.Getenv
	}

	for _, e := range []string{configured, getenv("VISUAL"), getenv("EDITOR")} {
		if strings.TrimSpace(e) != "" {
			return strings.TrimSpace(e)
		}
	}
	return DefaultEditor
}

// Runner runs a command attached to the terminal.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs the commands with os/exec using the given streams.
type ExecRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	return cmd.Run()
}

// LauncherConfig is the configuration of the editor launcher.
type LauncherConfig struct {
	// Editor is the configured editor command, it can have arguments (e.g. "code --wait").
	Editor string
	Getenv func(string) string
	Runner Runner
	Logger log.Logger
}

func (c *LauncherConfig) defaults() error {
	if c.Getenv == nil {
		c.Getenv = os.Getenv
	}
	if c.Runner == nil {
		c.Runner = ExecRunner{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "editor.Launcher"})
	return nil
}

// Launcher opens files on the user editor.
type Launcher struct {
	command string
	runner  Runner
	logger  log.Logger
}

// NewLauncher returns a new editor launcher.
func NewLauncher(cfg LauncherConfig) (*Launcher, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Launcher{
		command: Resolve(cfg.Editor, cfg.Getenv),
		runner:  cfg.Runner,
		logger:  cfg.Logger,
	}, nil
}

// Command returns the resolved editor command.
func (l *Launcher) Command() string { return l.command }

// Edit opens path on the editor and waits until it exits.
func (l *Launcher) Edit(ctx context.Context, path string) error {
	fields := strings.Fields(l.command)
	args := append(fields[1:], path)

	l.logger.Debugf("Opening %s with %s", path, fields[0])
	if err := l.runner.Run(ctx, fields[0], args...); err != nil {
		return fmt.Errorf("editor %q failed: %w", l.command, err)
	}
	return nil
}
