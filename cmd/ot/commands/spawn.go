package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/opentown/internal/app/spawn"
)

// SpawnCommand creates the engineers of the current task.
type SpawnCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	count      int
	noSession  bool
	startAgent bool
}

// NewSpawnCommand returns the spawn command.
func NewSpawnCommand(rootCmd *RootCommand, app *kingpin.Application) *SpawnCommand {
	c := &SpawnCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("spawn", "Create the engineer worktrees and sessions of the current task.")
	c.Cmd.Arg("count", "Number of engineers.").Default("1").IntVar(&c.count)
	c.Cmd.Flag("no-session", "Don't create the terminal sessions.").BoolVar(&c.noSession)
	c.Cmd.Flag("start-agent", "Start the configured agent on every session.").BoolVar(&c.startAgent)

	return c
}

func (c *SpawnCommand) Name() string { return c.Cmd.FullCommand() }

func (c *SpawnCommand) Run(ctx context.Context) error {
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

	svc, err := spawn.NewService(spawn.ServiceConfig{
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
		return fmt.Errorf("could not create spawn service: %w", err)
	}

	res, err := svc.Run(ctx, spawn.Request{
		Count:      c.count,
		NoSession:  c.noSession,
		StartAgent: c.startAgent,
	})
	if err != nil {
		return err
	}

	p := c.rootCmd.newPrinter(formatTable)
	for _, se := range res.Engineers {
		subtask := "no subtask"
		if se.Subtask != nil {
			subtask = se.Subtask.Desc
		}
		msg := fmt.Sprintf("Spawned %s on %s (%s)", se.Engineer.ID, se.WorktreePath, subtask)
		if se.SessionError != nil {
			msg += fmt.Sprintf(", session failed: %s", se.SessionError)
		}
		if err := p.PrintMessage(msg); err != nil {
			return err
		}
	}

	return p.PrintMessage(fmt.Sprintf("Next: engineers run `ot engineer <id>`, then `ot run` to monitor %s.", res.TaskID))
}
