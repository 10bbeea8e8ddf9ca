package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/opentown/internal/app/subtaskadd"
)

// SubtaskAddCommand appends a subtask to a task.
type SubtaskAddCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	taskID string
	desc   string
}

// NewSubtaskAddCommand returns the subtask add command.
func NewSubtaskAddCommand(rootCmd *RootCommand, subtaskCmd *kingpin.CmdClause) *SubtaskAddCommand {
	c := &SubtaskAddCommand{rootCmd: rootCmd}

	c.Cmd = subtaskCmd.Command("add", "Add a subtask to a task.")
	c.Cmd.Arg("task-id", "The task ID.").Required().StringVar(&c.taskID)
	c.Cmd.Arg("description", "The subtask description.").Required().StringVar(&c.desc)

	return c
}

func (c *SubtaskAddCommand) Name() string { return c.Cmd.FullCommand() }

func (c *SubtaskAddCommand) Run(ctx context.Context) error {
	t, err := c.rootCmd.openTown(ctx)
	if err != nil {
		return err
	}
	defer t.Close()

	svc, err := subtaskadd.NewService(subtaskadd.ServiceConfig{
		Repository: t.Repository,
		Locker:     t.Locker,
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create subtask add service: %w", err)
	}

	res, err := svc.Run(ctx, subtaskadd.Request{TaskID: c.taskID, Desc: c.desc})
	if err != nil {
		return err
	}

	fmt.Fprintf(c.rootCmd.Stdout, "Added %s: %s\n", res.Subtask.ID, res.Subtask.Desc)
	return nil
}
