package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/opentown/internal/app/monitor"
	"github.com/slok/opentown/internal/app/qa"
	"github.com/slok/opentown/internal/app/run"
	"github.com/slok/opentown/internal/conventions"
	"github.com/slok/opentown/internal/printer"
	"github.com/slok/opentown/internal/watch"
)

// RunCommand starts or resumes a task and monitors the engineers until QA.
type RunCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	taskID    string
	noMonitor bool
	interval  time.Duration
}

// NewRunCommand returns the run command.
func NewRunCommand(rootCmd *RootCommand, app *kingpin.Application) *RunCommand {
	c := &RunCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("run", "Start or resume a task and monitor it until QA.")
	c.Cmd.Flag("task", "The task ID to start, by default the current or the next pending one.").StringVar(&c.taskID)
	c.Cmd.Flag("no-monitor", "Don't monitor the engineers after starting the task.").BoolVar(&c.noMonitor)
	c.Cmd.Flag("interval", "Monitor poll interval, by default the configured one.").DurationVar(&c.interval)

	return c
}

func (c *RunCommand) Name() string { return c.Cmd.FullCommand() }

func (c *RunCommand) Run(ctx context.Context) error {
	t, err := c.rootCmd.openTown(ctx)
	if err != nil {
		return err
	}
	defer t.Close()

	runSvc, err := run.NewService(run.ServiceConfig{
		Repository: t.Repository,
		Events:     t.Events,
		Locker:     t.Locker,
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create run service: %w", err)
	}

	res, err := runSvc.Run(ctx, run.Request{TaskID: c.taskID})
	if err != nil {
		return c.rootCmd.nothingToDo(err)
	}

	verb := "Started"
	if res.Resumed {
		verb = "Resumed"
	}
	fmt.Fprintf(c.rootCmd.Stdout, "%s %s: %s (phase %s)\n", verb, res.Task.ID, res.Task.Title, res.Phase)

	if c.noMonitor {
		return nil
	}

	return c.monitor(ctx, t)
}

func (c *RunCommand) monitor(ctx context.Context, t *town) error {
	interval := t.Config.MonitorInterval
	if c.interval > 0 {
		interval = c.interval
	}

	watcher, err := watch.NewFileWatcher(ctx, watch.FileWatcherConfig{
		Paths:  []string{conventions.TownFilePath(t.Dir, conventions.StateFile)},
		Logger: c.rootCmd.Logger,
	})
	if err != nil {
		c.rootCmd.Logger.Warningf("Could not watch the state, polling only: %s", err)
		watcher = nil
	}

	cfg := monitor.ServiceConfig{
		Repository: t.Repository,
		Events:     t.Events,
		Locker:     t.Locker,
		Interval:   interval,
		OnPoll:     c.printPoll,
		Logger:     c.rootCmd.Logger,
	}
	if watcher != nil {
		cfg.Watcher = watcher
	}

	svc, err := monitor.NewService(cfg)
	if err != nil {
		return fmt.Errorf("could not create monitor service: %w", err)
	}

	fmt.Fprintf(c.rootCmd.Stdout, "Monitoring engineers every %s (Ctrl+C to stop)...\n", interval)
	res, err := svc.Run(ctx)
	if err != nil {
		return err
	}
	if res.Stopped {
		fmt.Fprintln(c.rootCmd.Stdout, "Monitor stopped, resume it with `ot run`.")
		return nil
	}

	switch res.Last.Outcome {
	case monitor.OutcomeQAReady:
		return c.printQA(ctx, t)
	case monitor.OutcomeComplete:
		fmt.Fprintln(c.rootCmd.Stdout, "Task complete.")
	case monitor.OutcomeIdle:
		fmt.Fprintln(c.rootCmd.Stdout, "No active task.")
	}

	return nil
}

func (c *RunCommand) printPoll(r monitor.PollResult) {
	task := "-"
	if r.CurrentTask != nil {
		task = *r.CurrentTask
	}
	fmt.Fprintf(c.rootCmd.Stdout, "[%s] %s phase=%s engineers=%d/%d outcome=%s\n",
		printer.FormatTimestamp(time.Now()), task, r.Phase, r.EngineersDone, r.Engineers, r.Outcome)
}

func (c *RunCommand) printQA(ctx context.Context, t *town) error {
	svc, err := qa.NewService(qa.ServiceConfig{
		Repository: t.Repository,
		Config:     t.Config,
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create qa service: %w", err)
	}

	res, err := svc.Run(ctx)
	if err != nil {
		return c.rootCmd.nothingToDo(err)
	}

	return c.rootCmd.newPrinter(formatTable).PrintPrompt("QA", res.Prompt)
}
