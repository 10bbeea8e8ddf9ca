package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/opentown/internal/app/done"
)

// DoneCommand marks an engineer as done.
type DoneCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	engineerID string
}

// NewDoneCommand returns the done command.
func NewDoneCommand(rootCmd *RootCommand, app *kingpin.Application) *DoneCommand {
	c := &DoneCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("done", "Mark an engineer work as done.")
	c.Cmd.Arg("engineer-id", "The engineer ID.").Required().StringVar(&c.engineerID)

	return c
}

func (c *DoneCommand) Name() string { return c.Cmd.FullCommand() }

func (c *DoneCommand) Run(ctx context.Context) error {
	t, err := c.rootCmd.openTown(ctx)
	if err != nil {
		return err
	}
	defer t.Close()

	svc, err := done.NewService(done.ServiceConfig{
		Repository: t.Repository,
		Events:     t.Events,
		Locker:     t.Locker,
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create done service: %w", err)
	}

	res, err := svc.Run(ctx, done.Request{EngineerID: c.engineerID})
	if err != nil {
		return err
	}

	switch {
	case res.AlreadyDone:
		fmt.Fprintf(c.rootCmd.Stdout, "Engineer %s was already done.\n", res.Engineer.ID)
	default:
		fmt.Fprintf(c.rootCmd.Stdout, "Engineer %s done.\n", res.Engineer.ID)
	}
	if res.AllDone {
		fmt.Fprintln(c.rootCmd.Stdout, "All engineers are done, the monitor will move the task to QA.")
	}

	return nil
}
