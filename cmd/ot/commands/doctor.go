package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/opentown/internal/app/doctor"
	"github.com/slok/opentown/internal/editor"
	"github.com/slok/opentown/internal/model"
	"github.com/slok/opentown/internal/worktree/git"
)

// DoctorCommand runs the environment preflight checks.
type DoctorCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand
}

// NewDoctorCommand returns the doctor command.
func NewDoctorCommand(rootCmd *RootCommand, app *kingpin.Application) *DoctorCommand {
	c := &DoctorCommand{rootCmd: rootCmd}
	c.Cmd = app.Command("doctor", "Check the environment has everything the town needs.")
	return c
}

func (c *DoctorCommand) Name() string { return c.Cmd.FullCommand() }

func (c *DoctorCommand) Run(ctx context.Context) error {
	t, err := c.rootCmd.openTown(ctx)
	if err != nil {
		return err
	}
	defer t.Close()

	svc, err := doctor.NewService(doctor.ServiceConfig{
		Git:         git.NewExecRunner(t.ProjectDir),
		InitChecker: t.Repository,
		Editor:      editor.Resolve(t.Config.Editor, nil),
		Logger:      c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create doctor service: %w", err)
	}

	results := svc.Run(ctx)
	if err := c.rootCmd.newPrinter(formatTable).PrintChecks(results); err != nil {
		return err
	}

	if model.CheckResults(results).Failed() {
		return fmt.Errorf("environment checks failed")
	}

	return nil
}
