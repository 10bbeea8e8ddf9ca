package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/opentown/internal/app/history"
)

// HistoryCommand lists the pipeline events journal.
type HistoryCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	taskID string
	limit  int
	format string
}

// NewHistoryCommand returns the history command.
func NewHistoryCommand(rootCmd *RootCommand, app *kingpin.Application) *HistoryCommand {
	c := &HistoryCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("history", "List the pipeline events.")
	c.Cmd.Flag("task", "Only the events of this task.").StringVar(&c.taskID)
	c.Cmd.Flag("limit", "Maximum number of events, 0 is unlimited.").Default("0").IntVar(&c.limit)
	c.Cmd.Flag("format", "Output format.").Short('o').Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)

	return c
}

func (c *HistoryCommand) Name() string { return c.Cmd.FullCommand() }

func (c *HistoryCommand) Run(ctx context.Context) error {
	t, err := c.rootCmd.openTown(ctx)
	if err != nil {
		return err
	}
	defer t.Close()

	svc, err := history.NewService(history.ServiceConfig{
		InitChecker: t.Repository,
		Events:      t.Events,
		Logger:      c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create history service: %w", err)
	}

	events, err := svc.Run(ctx, history.Request{TaskID: c.taskID, Limit: c.limit})
	if err != nil {
		return err
	}

	return c.rootCmd.newPrinter(c.format).PrintEvents(events)
}
