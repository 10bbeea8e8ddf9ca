package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/opentown/internal/app/ceo"
)

// CEOCommand plans the describe document items into tasks.
type CEOCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand
}

// NewCEOCommand returns the ceo command.
func NewCEOCommand(rootCmd *RootCommand, app *kingpin.Application) *CEOCommand {
	c := &CEOCommand{rootCmd: rootCmd}
	c.Cmd = app.Command("ceo", "Register the pending describe items as tasks and print the planning prompt.")
	return c
}

func (c *CEOCommand) Name() string { return c.Cmd.FullCommand() }

func (c *CEOCommand) Run(ctx context.Context) error {
	t, err := c.rootCmd.openTown(ctx)
	if err != nil {
		return err
	}
	defer t.Close()

	svc, err := ceo.NewService(ceo.ServiceConfig{
		Repository:  t.Repository,
		Events:      t.Events,
		Locker:      t.Locker,
		ProjectName: t.Config.ProjectName,
		Logger:      c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create ceo service: %w", err)
	}

	res, err := svc.Run(ctx)
	if err != nil {
		return c.rootCmd.nothingToDo(err)
	}

	p := c.rootCmd.newPrinter(formatTable)
	for _, task := range res.Created {
		if err := p.PrintMessage(fmt.Sprintf("Planned %s: %s", task.ID, task.Title)); err != nil {
			return err
		}
	}

	return p.PrintPrompt("CEO", res.Prompt)
}
