package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/opentown/internal/app/attach"
)

// AttachCommand attaches the terminal to an engineer session.
type AttachCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	engineerID string
}

// NewAttachCommand returns the attach command.
func NewAttachCommand(rootCmd *RootCommand, app *kingpin.Application) *AttachCommand {
	c := &AttachCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("attach", "Attach to the terminal session of an engineer.")
	c.Cmd.Arg("engineer-id", "The engineer ID.").Required().StringVar(&c.engineerID)

	return c
}

func (c *AttachCommand) Name() string { return c.Cmd.FullCommand() }

func (c *AttachCommand) Run(ctx context.Context) error {
	t, err := c.rootCmd.openTown(ctx)
	if err != nil {
		return err
	}
	defer t.Close()

	sessions, err := c.rootCmd.newSessionManager()
	if err != nil {
		return fmt.Errorf("could not create session manager: %w", err)
	}

	svc, err := attach.NewService(attach.ServiceConfig{
		Repository: t.Repository,
		Sessions:   sessions,
		Config:     t.Config,
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create attach service: %w", err)
	}

	return svc.Run(ctx, attach.Request{EngineerID: c.engineerID})
}
