package tmux

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

// CommandRunner abstracts tmux command execution.
type CommandRunner interface {
	// Run runs a command capturing its output.
	Run(ctx context.Context, args ...string) (string, error)
	// RunInteractive runs a command attached to the terminal.
	RunInteractive(ctx context.Context, args ...string) error
}

// ExecRunner runs real tmux commands using os/exec.
type ExecRunner struct {
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	Timeout time.Duration
}

// Run executes a tmux command, by default with a 5 second timeout.
func (r *ExecRunner) Run(ctx context.Context, args ...string) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		timeout := r.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "tmux", args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tmux %s failed: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}

// RunInteractive executes a tmux command with the runner standard streams.
func (r *ExecRunner) RunInteractive(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "tmux", args...)
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("tmux %s failed: %w", strings.Join(args, " "), err)
	}
	return nil
}
