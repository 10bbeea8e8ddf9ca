package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/opentown/internal/app/initialize"
	"github.com/slok/opentown/internal/model"
)

// InitCommand creates the town directory of the current project.
type InitCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	projectName string
}

// NewInitCommand returns the init command.
func NewInitCommand(rootCmd *RootCommand, app *kingpin.Application) *InitCommand {
	c := &InitCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("init", "Initialize the town on the current project.")
	c.Cmd.Flag("project-name", "Project name used on the describe document and configuration.").StringVar(&c.projectName)

	return c
}

func (c *InitCommand) Name() string { return c.Cmd.FullCommand() }

func (c *InitCommand) Run(ctx context.Context) error {
	t, err := c.rootCmd.openTown(ctx)
	if err != nil {
		return err
	}
	defer t.Close()

	svc, err := initialize.NewService(initialize.ServiceConfig{
		Repository:       t.Repository,
		ConfigRepository: t.Configs,
		ConfigPath:       t.ConfigPath(),
		Logger:           c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create init service: %w", err)
	}

	res, err := svc.Run(ctx, initialize.Request{ProjectName: c.projectName})
	if err != nil {
		if errors.Is(err, model.ErrAlreadyExists) {
			fmt.Fprintf(c.rootCmd.Stdout, "Town already initialized at %s\n", t.Dir)
			return nil
		}
		return err
	}

	// The journal is created with the town so history works from the first command.
	if err := t.openJournal(ctx, c.rootCmd); err != nil {
		return err
	}

	fmt.Fprintf(c.rootCmd.Stdout, "Town initialized at %s\n", t.Dir)
	for _, s := range res.Seeded {
		fmt.Fprintf(c.rootCmd.Stdout, "  created %s\n", s)
	}
	fmt.Fprintln(c.rootCmd.Stdout, "Next: run `ot describe` and add work items under the Next section.")

	return nil
}
