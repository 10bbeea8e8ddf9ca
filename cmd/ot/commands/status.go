package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/opentown/internal/app/status"
)

// StatusCommand shows the pipeline state.
type StatusCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	format   string
	sessions bool
}

// NewStatusCommand returns the status command.
func NewStatusCommand(rootCmd *RootCommand, app *kingpin.Application) *StatusCommand {
	c := &StatusCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("status", "Show the pipeline status.")
	c.Cmd.Flag("format", "Output format.").Short('o').Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)
	c.Cmd.Flag("sessions", "Check if the engineer sessions are alive.").BoolVar(&c.sessions)

	return c
}

func (c *StatusCommand) Name() string { return c.Cmd.FullCommand() }

func (c *StatusCommand) Run(ctx context.Context) error {
	t, err := c.rootCmd.openTown(ctx)
	if err != nil {
		return err
	}
	defer t.Close()

	cfg := status.ServiceConfig{
		Repository: t.Repository,
		Config:     t.Config,
		Logger:     c.rootCmd.Logger,
	}
	if c.sessions {
		sessions, err := c.rootCmd.newSessionManager()
		if err != nil {
			return fmt.Errorf("could not create session manager: %w", err)
		}
		cfg.Sessions = sessions
	}

	svc, err := status.NewService(cfg)
	if err != nil {
		return fmt.Errorf("could not create status service: %w", err)
	}

	res, err := svc.Run(ctx)
	if err != nil {
		return err
	}

	return c.rootCmd.newPrinter(c.format).PrintStatus(*res)
}
