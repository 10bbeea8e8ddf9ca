package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/opentown/internal/app/engineer"
)

// EngineerCommand prints the working prompt of an engineer.
type EngineerCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	engineerID string
}

// NewEngineerCommand returns the engineer command.
func NewEngineerCommand(rootCmd *RootCommand, app *kingpin.Application) *EngineerCommand {
	c := &EngineerCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("engineer", "Print the prompt of an engineer.")
	c.Cmd.Arg("engineer-id", "The engineer ID.").Required().StringVar(&c.engineerID)

	return c
}

func (c *EngineerCommand) Name() string { return c.Cmd.FullCommand() }

func (c *EngineerCommand) Run(ctx context.Context) error {
	t, err := c.rootCmd.openTown(ctx)
	if err != nil {
		return err
	}
	defer t.Close()

	svc, err := engineer.NewService(engineer.ServiceConfig{
		Repository: t.Repository,
		TownDir:    t.Dir,
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create engineer service: %w", err)
	}

	res, err := svc.Run(ctx, engineer.Request{EngineerID: c.engineerID})
	if err != nil {
		return err
	}

	p := c.rootCmd.newPrinter(formatTable)
	if res.Done {
		return p.PrintMessage(fmt.Sprintf("Engineer %s is already done.", res.Engineer.ID))
	}

	return p.PrintPrompt("ENGINEER "+res.Engineer.ID, res.Prompt)
}
