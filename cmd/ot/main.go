package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/oklog/run"
	"github.com/sirupsen/logrus"

	"github.com/slok/opentown/cmd/ot/commands"
	"github.com/slok/opentown/internal/log"
	loglogrus "github.com/slok/opentown/internal/log/logrus"
	"github.com/slok/opentown/internal/model"
)

const (
	// Version is the application version (set via ldflags).
	Version = "dev"
)

// Run runs the main application.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) (err error) {
	app := kingpin.New("ot", "OpenTown, a multi agent development pipeline on git worktrees.")
	app.DefaultEnvars()
	rootCmd := commands.NewRootCommand(app)

	// Setup commands (registers flags).
	initCmd := commands.NewInitCommand(rootCmd, app)
	describeCmd := commands.NewDescribeCommand(rootCmd, app)
	ceoCmd := commands.NewCEOCommand(rootCmd, app)
	managerCmd := commands.NewManagerCommand(rootCmd, app)
	runCmd := commands.NewRunCommand(rootCmd, app)
	statusCmd := commands.NewStatusCommand(rootCmd, app)
	spawnCmd := commands.NewSpawnCommand(rootCmd, app)
	engineerCmd := commands.NewEngineerCommand(rootCmd, app)
	doneCmd := commands.NewDoneCommand(rootCmd, app)
	qaCmd := commands.NewQACommand(rootCmd, app)
	completeCmd := commands.NewCompleteCommand(rootCmd, app)
	attachCmd := commands.NewAttachCommand(rootCmd, app)
	historyCmd := commands.NewHistoryCommand(rootCmd, app)
	doctorCmd := commands.NewDoctorCommand(rootCmd, app)

	// Subtask subcommands share a parent command.
	subtaskCmd := app.Command("subtask", "Manage the task subtasks.")
	subtaskAddCmd := commands.NewSubtaskAddCommand(rootCmd, subtaskCmd)

	cmds := map[string]commands.Command{
		initCmd.Name():       initCmd,
		describeCmd.Name():   describeCmd,
		ceoCmd.Name():        ceoCmd,
		managerCmd.Name():    managerCmd,
		runCmd.Name():        runCmd,
		statusCmd.Name():     statusCmd,
		spawnCmd.Name():      spawnCmd,
		engineerCmd.Name():   engineerCmd,
		doneCmd.Name():       doneCmd,
		qaCmd.Name():         qaCmd,
		completeCmd.Name():   completeCmd,
		attachCmd.Name():     attachCmd,
		historyCmd.Name():    historyCmd,
		doctorCmd.Name():     doctorCmd,
		subtaskAddCmd.Name(): subtaskAddCmd,
	}

	// Parse command.
	cmdName, err := app.Parse(args[1:])
	if err != nil {
		return fmt.Errorf("invalid command configuration: %w", err)
	}

	// Set standard input/output.
	rootCmd.Stdin = stdin
	rootCmd.Stdout = stdout
	rootCmd.Stderr = stderr

	// Prompt and structured output commands are meant to be piped, logs would only add noise.
	// Users can still enable logging with --debug.
	printerCommands := map[string]bool{
		"status":   true,
		"history":  true,
		"ceo":      true,
		"manager":  true,
		"engineer": true,
		"qa":       true,
	}
	if printerCommands[cmdName] && !rootCmd.Debug {
		rootCmd.NoLog = true
	}

	// Set logger.
	rootCmd.Logger = getLogger(ctx, *rootCmd)

	var g run.Group

	// OS signals.
	{
		signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer signalCancel()

		g.Add(
			func() error {
				<-signalCtx.Done()
				rootCmd.Logger.Debugf("Termination signal received")
				return nil
			},
			func(_ error) {
				signalCancel()
			},
		)
	}

	// Execute command.
	{
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		g.Add(
			func() error {
				err := cmds[cmdName].Run(ctx)
				if err != nil {
					return fmt.Errorf("%q command failed: %w", cmdName, err)
				}
				return nil
			},
			func(_ error) {
				cancel()
			},
		)
	}

	return g.Run()
}

// getLogger returns the application logger.
func getLogger(ctx context.Context, config commands.RootCommand) log.Logger {
	if config.NoLog {
		return log.Noop
	}

	// If logger not disabled use logrus logger.
	logrusLog := logrus.New()
	logrusLog.Out = config.Stderr // By default logger goes to stderr (so it can split stdout prints).
	logrusLogEntry := logrus.NewEntry(logrusLog)

	if config.Debug {
		logrusLogEntry.Logger.SetLevel(logrus.DebugLevel)
	}

	// Log format.
	switch config.LoggerType {
	case commands.LoggerTypeDefault:
		logrusLogEntry.Logger.SetFormatter(&logrus.TextFormatter{
			ForceColors:   !config.NoColor,
			DisableColors: config.NoColor,
		})
	case commands.LoggerTypeJSON:
		logrusLogEntry.Logger.SetFormatter(&logrus.JSONFormatter{})
	}

	logger := loglogrus.NewLogrus(logrusLogEntry).WithValues(log.Kv{
		"version": Version,
	})

	logger.Debugf("Debug level is enabled") // Will log only when debug enabled.

	return logger
}

// errorHint returns a suggestion for the errors the user can fix by running another command.
func errorHint(err error) string {
	switch {
	case errors.Is(err, model.ErrNotInitialized):
		return "run `ot init` first"
	case errors.Is(err, model.ErrInvalidState):
		return "check the pipeline with `ot status`"
	}
	return ""
}

func main() {
	ctx := context.Background()
	err := Run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		if hint := errorHint(err); hint != "" {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		os.Exit(1)
	}
}
