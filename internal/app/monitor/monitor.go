package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/slok/opentown/internal/lock"
	"github.com/slok/opentown/internal/log"
	"github.com/slok/opentown/internal/model"
	"github.com/slok/opentown/internal/storage"
	"github.com/slok/opentown/internal/watch"
)

// Outcome is the result of a single monitor poll.
type Outcome string

const (
	// OutcomeWaiting means the pipeline is planning or engineers are still working.
	OutcomeWaiting Outcome = "waiting"
	// OutcomeQAReady means the poll moved the pipeline to QA.
	OutcomeQAReady Outcome = "qa_ready"
	// OutcomeQAWaiting means the pipeline is on QA waiting to be completed.
	OutcomeQAWaiting Outcome = "qa_waiting"
	// OutcomeComplete means the current task is complete.
	OutcomeComplete Outcome = "complete"
	// OutcomeIdle means there is no active task.
	OutcomeIdle Outcome = "idle"
)

// Final returns true when the monitor loop stops on this outcome.
func (o Outcome) Final() bool {
	switch o {
	case OutcomeQAReady, OutcomeComplete, OutcomeIdle:
		return true
	}
	return false
}

// ServiceConfig is the configuration for the monitor service.
type ServiceConfig struct {
	Repository storage.PipelineRepository
	Events     storage.EventRepository
	Locker     lock.Locker
	// Watcher wakes up the loop before the interval ends.
	Watcher  watch.Watcher
	Interval time.Duration
	// OnPoll is called after every poll of the loop.
	OnPoll func(PollResult)
	Logger log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Events == nil {
		c.Events = storage.NoopEventRepository
	}
	if c.Locker == nil {
		c.Locker = lock.Noop
	}
	if c.Watcher == nil {
		c.Watcher = watch.Noop
	}
	if c.Interval == 0 {
		c.Interval = model.DefaultMonitorInterval
	}
	if c.Interval < 0 {
		return fmt.Errorf("interval must be positive")
	}
	if c.OnPoll == nil {
		c.OnPoll = func(PollResult) {}
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Monitor"})
	return nil
}

// Service watches the pipeline and moves it to QA when all the engineers are done.
type Service struct {
	repo     storage.PipelineRepository
	events   storage.EventRepository
	locker   lock.Locker
	watcher  watch.Watcher
	interval time.Duration
	onPoll   func(PollResult)
	logger   log.Logger
}

// NewService creates a new monitor service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:     cfg.Repository,
		events:   cfg.Events,
		locker:   cfg.Locker,
		watcher:  cfg.Watcher,
		interval: cfg.Interval,
		onPoll:   cfg.OnPoll,
		logger:   cfg.Logger,
	}, nil
}

// PollResult is the result of a poll.
type PollResult struct {
	Outcome       Outcome
	Phase         model.Phase
	CurrentTask   *string
	EngineersDone int
	Engineers     int
}

// Poll checks the pipeline once, performing the implementation to QA transition.
func (s *Service) Poll(ctx context.Context) (*PollResult, error) {
	unlock, err := s.locker.Lock(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = unlock() }()

	tasks, state, err := storage.LoadPipeline(ctx, s.repo)
	if err != nil {
		return nil, err
	}

	var outcome Outcome
	switch state.Phase {
	case model.PhaseImplementation:
		outcome = OutcomeWaiting
		if model.AdvanceToQA(tasks, state) {
			if err := storage.SavePipeline(ctx, s.repo, *tasks, *state); err != nil {
				return nil, err
			}
			e := model.Event{Kind: model.EventKindPhaseQA}
			if state.CurrentTask != nil {
				e.TaskID = *state.CurrentTask
			}
			storage.RecordEvent(ctx, s.events, s.logger, e)
			s.logger.Infof("All engineers done, pipeline moved to QA")
			outcome = OutcomeQAReady
		}
	case model.PhasePlanning:
		outcome = OutcomeWaiting
	case model.PhaseQA:
		outcome = OutcomeQAWaiting
	case model.PhaseComplete:
		outcome = OutcomeComplete
	default:
		outcome = OutcomeIdle
	}

	done := 0
	for _, e := range state.Engineers {
		if e.Status == model.EngineerStatusDone {
			done++
		}
	}

	return &PollResult{
		Outcome:       outcome,
		Phase:         state.Phase,
		CurrentTask:   state.CurrentTask,
		EngineersDone: done,
		Engineers:     len(state.Engineers),
	}, nil
}

// Result is the result of the monitor loop.
type Result struct {
	Last PollResult
	// Stopped is true when the loop ended because the context was cancelled.
	Stopped bool
}

// Run polls the pipeline until a final outcome or until the context is cancelled, waking up
// every interval or when the watcher notifies a change.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	for {
		res, err := s.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return &Result{Stopped: true}, nil
			}
			return nil, err
		}
		s.onPoll(*res)

		if res.Outcome.Final() {
			return &Result{Last: *res}, nil
		}

		timer := time.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Debugf("Monitor stopped")
			return &Result{Last: *res, Stopped: true}, nil
		case <-timer.C:
		case <-s.watcher.Changes():
			timer.Stop()
			s.logger.Debugf("Pipeline change detected")
		}
	}
}
