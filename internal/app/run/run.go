package run

import (
	"context"
	"fmt"
	"time"

	"github.com/slok/opentown/internal/lock"
	"github.com/slok/opentown/internal/log"
	"github.com/slok/opentown/internal/model"
	"github.com/slok/opentown/internal/storage"
)

// ServiceConfig is the configuration for the run service.
type ServiceConfig struct {
	Repository storage.PipelineRepository
	Events     storage.EventRepository
	Locker     lock.Locker
	TimeNow    func() time.Time
	Logger     log.Logger
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
	if c.TimeNow == nil {
		c.TimeNow = time.Now
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Run"})
	return nil
}

// Service starts tasks on the pipeline.
type Service struct {
	repo    storage.PipelineRepository
	events  storage.EventRepository
	locker  lock.Locker
	timeNow func() time.Time
	logger  log.Logger
}

// NewService creates a new run service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:    cfg.Repository,
		events:  cfg.Events,
		locker:  cfg.Locker,
		timeNow: cfg.TimeNow,
		logger:  cfg.Logger,
	}, nil
}

// Request is the request to run a task.
type Request struct {
	// TaskID is optional, when empty the current task is resumed or the first pending one
	// is started.
	TaskID string
}

// Result is the result of running a task.
type Result struct {
	Task model.Task
	// Resumed is true when the task was already current and nothing changed.
	Resumed bool
	Phase   model.Phase
}

// Run makes a task the current one and moves the pipeline to planning.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	unlock, err := s.locker.Lock(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = unlock() }()

	tasks, state, err := storage.LoadPipeline(ctx, s.repo)
	if err != nil {
		return nil, err
	}

	id := req.TaskID
	if id == "" {
		switch {
		case state.CurrentTask != nil && state.Phase != model.PhaseIdle:
			id = *state.CurrentTask
		default:
			next := tasks.NextPending()
			if next == nil {
				return nil, fmt.Errorf("no pending tasks: %w", model.ErrNothingToDo)
			}
			id = next.ID
		}
	}

	resumed, err := model.StartTask(tasks, state, id, s.timeNow())
	if err != nil {
		return nil, err
	}

	if !resumed {
		if err := storage.SavePipeline(ctx, s.repo, *tasks, *state); err != nil {
			return nil, err
		}
		storage.RecordEvent(ctx, s.events, s.logger, model.Event{Kind: model.EventKindTaskStarted, TaskID: id})
		s.logger.Infof("Task %s started", id)
	} else {
		s.logger.Debugf("Task %s resumed on %s phase", id, state.Phase)
	}

	t, err := tasks.Task(id)
	if err != nil {
		return nil, err
	}

	return &Result{Task: *t, Resumed: resumed, Phase: state.Phase}, nil
}
