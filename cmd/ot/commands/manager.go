package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/opentown/internal/app/manager"
)

// ManagerCommand selects the task to work on and prints the breakdown prompt.
type ManagerCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand
}

// NewManagerCommand returns the manager command.
func NewManagerCommand(rootCmd *RootCommand, app *kingpin.Application) *ManagerCommand {
	c := &ManagerCommand{rootCmd: rootCmd}
	c.Cmd = app.Command("manager", "Start the next task and print the subtask breakdown prompt.")
	return c
}

func (c *ManagerCommand) Name() string { return c.Cmd.FullCommand() }

func (c *ManagerCommand) Run(ctx context.Context) error {
	t, err := c.rootCmd.openTown(ctx)
	if err != nil {
		return err
	}
	defer t.Close()

	svc, err := manager.NewService(manager.ServiceConfig{
		Repository:  t.Repository,
		Events:      t.Events,
		Locker:      t.Locker,
		ProjectName: t.Config.ProjectName,
		Logger:      c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create manager service: %w", err)
	}

	res, err := svc.Run(ctx)
	if err != nil {
		return c.rootCmd.nothingToDo(err)
	}

	p := c.rootCmd.newPrinter(formatTable)
	if res.Started {
		if err := p.PrintMessage(fmt.Sprintf("Started %s: %s", res.Task.ID, res.Task.Title)); err != nil {
			return err
		}
	}
	if err := p.PrintPrompt("MANAGER", res.Prompt); err != nil {
		return err
	}

	return p.PrintMessage(fmt.Sprintf("Next: run `ot spawn %d`.", res.Engineers))
}
