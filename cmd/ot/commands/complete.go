package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/opentown/internal/app/complete"
)

// CompleteCommand closes the current task and cleans its engineers.
type CompleteCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand
}

// NewCompleteCommand returns the complete command.
func NewCompleteCommand(rootCmd *RootCommand, app *kingpin.Application) *CompleteCommand {
	c := &CompleteCommand{rootCmd: rootCmd}
	c.Cmd = app.Command("complete", "Complete the current task after QA.")
	return c
}

func (c *CompleteCommand) Name() string { return c.Cmd.FullCommand() }

func (c *CompleteCommand) Run(ctx context.Context) error {
	t, err := c.rootCmd.openTown(ctx)
	if err != nil {
		return err
	}
	defer t.Close()

	worktrees, err := c.rootCmd.newWorktreeManager(t.ProjectDir)
	if err != nil {
		return fmt.Errorf("could not create worktree manager: %w", err)
	}
	sessions, err := c.rootCmd.newSessionManager()
	if err != nil {
		return fmt.Errorf("could not create session manager: %w", err)
	}

	svc, err := complete.NewService(complete.ServiceConfig{
		Repository: t.Repository,
		Events:     t.Events,
		Locker:     t.Locker,
		Worktrees:  worktrees,
		Sessions:   sessions,
		Config:     t.Config,
		TownDir:    t.Dir,
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create complete service: %w", err)
	}

	res, err := svc.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.rootCmd.Stdout, "Task %s complete: %s\n", res.Task.ID, res.Task.Title)
	if res.DescribeUpdated {
		fmt.Fprintln(c.rootCmd.Stdout, "  moved to the Done section of the describe document")
	}
	fmt.Fprintf(c.rootCmd.Stdout, "  removed %d worktrees, killed %d sessions\n", len(res.RemovedWorktrees), len(res.KilledSessions))
	for _, w := range res.Warnings {
		fmt.Fprintf(c.rootCmd.Stdout, "  warning: %s\n", w)
	}

	return nil
}
