package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/opentown/internal/app/qa"
)

// QACommand prints the QA prompt and merge steps.
type QACommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand
}

// NewQACommand returns the qa command.
func NewQACommand(rootCmd *RootCommand, app *kingpin.Application) *QACommand {
	c := &QACommand{rootCmd: rootCmd}
	c.Cmd = app.Command("qa", "Print the QA prompt to merge and test the engineer branches.")
	return c
}

func (c *QACommand) Name() string { return c.Cmd.FullCommand() }

func (c *QACommand) Run(ctx context.Context) error {
	t, err := c.rootCmd.openTown(ctx)
	if err != nil {
		return err
	}
	defer t.Close()

	svc, err := qa.NewService(qa.ServiceConfig{
		Repository: t.Repository,
		Config:     t.Config,
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create qa service: %w", err)
	}

	res, err := svc.Run(ctx)
	if err != nil {
		return c.rootCmd.nothingToDo(err)
	}

	p := c.rootCmd.newPrinter(formatTable)
	if err := p.PrintPrompt("QA", res.Prompt); err != nil {
		return err
	}

	return p.PrintMessage(res.Steps)
}
