package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/opentown/internal/app/describe"
	"github.com/slok/opentown/internal/conventions"
	"github.com/slok/opentown/internal/editor"
)

// DescribeCommand opens the project describe document on the editor.
type DescribeCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand
}

// NewDescribeCommand returns the describe command.
func NewDescribeCommand(rootCmd *RootCommand, app *kingpin.Application) *DescribeCommand {
	c := &DescribeCommand{rootCmd: rootCmd}
	c.Cmd = app.Command("describe", "Edit the project describe document.")
	return c
}

func (c *DescribeCommand) Name() string { return c.Cmd.FullCommand() }

func (c *DescribeCommand) Run(ctx context.Context) error {
	t, err := c.rootCmd.openTown(ctx)
	if err != nil {
		return err
	}
	defer t.Close()

	launcher, err := editor.NewLauncher(editor.LauncherConfig{
		Editor: t.Config.Editor,
		Runner: editor.ExecRunner{Stdin: c.rootCmd.Stdin, Stdout: c.rootCmd.Stdout, Stderr: c.rootCmd.Stderr},
		Logger: c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create editor launcher: %w", err)
	}

	svc, err := describe.NewService(describe.ServiceConfig{
		Repository:   t.Repository,
		Editor:       launcher,
		DescribePath: conventions.TownFilePath(t.Dir, conventions.DescribeFile),
		Logger:       c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create describe service: %w", err)
	}

	res, err := svc.Run(ctx)
	if err != nil {
		return err
	}

	if len(res.NextItems) == 0 {
		fmt.Fprintln(c.rootCmd.Stdout, "No pending items under the Next section.")
		return nil
	}

	fmt.Fprintf(c.rootCmd.Stdout, "%d pending items:\n", len(res.NextItems))
	for _, it := range res.NextItems {
		fmt.Fprintf(c.rootCmd.Stdout, "  - %s\n", it)
	}
	fmt.Fprintln(c.rootCmd.Stdout, "Next: run `ot ceo` to plan them.")

	return nil
}
