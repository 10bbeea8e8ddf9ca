package done

import (
	"context"
	"fmt"

	"github.com/slok/opentown/internal/lock"
	"github.com/slok/opentown/internal/log"
	"github.com/slok/opentown/internal/model"
	"github.com/slok/opentown/internal/storage"
)

// ServiceConfig is the configuration for the done service.
type ServiceConfig struct {
	Repository storage.PipelineRepository
	Events     storage.EventRepository
	Locker     lock.Locker
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
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Done"})
	return nil
}

// Service marks engineers as done.
type Service struct {
	repo   storage.PipelineRepository
	events storage.EventRepository
	locker lock.Locker
	logger log.Logger
}

// NewService creates a new done service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		events: cfg.Events,
		locker: cfg.Locker,
		logger: cfg.Logger,
	}, nil
}

// Request is the request to mark an engineer as done.
type Request struct {
	EngineerID string
}

// Result is the result of marking an engineer as done.
type Result struct {
	Engineer model.Engineer
	// AlreadyDone is true when the engineer was done before the request.
	AlreadyDone bool
	// AllDone is true when every engineer of the roster is done.
	AllDone bool
}

// Run marks the engineer and its subtask as done. Marking a done engineer is a no-op.
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

	e, err := state.Engineer(req.EngineerID)
	if err != nil {
		return nil, err
	}

	if e.Status == model.EngineerStatusDone {
		return &Result{Engineer: *e, AlreadyDone: true, AllDone: state.AllEngineersDone()}, nil
	}

	e.Status = model.EngineerStatusDone
	taskID := ""
	if state.CurrentTask != nil {
		taskID = *state.CurrentTask
		if e.SubtaskID != nil {
			if t, err := tasks.Task(taskID); err == nil {
				for i := range t.Subtasks {
					if t.Subtasks[i].ID == *e.SubtaskID {
						t.Subtasks[i].Status = model.TaskStatusDone
					}
				}
			}
		}
	}

	if err := storage.SavePipeline(ctx, s.repo, *tasks, *state); err != nil {
		return nil, err
	}
	storage.RecordEvent(ctx, s.events, s.logger, model.Event{
		Kind:       model.EventKindEngineerDone,
		TaskID:     taskID,
		EngineerID: e.ID,
	})
	s.logger.Infof("Engineer %s done", e.ID)

	return &Result{Engineer: *e, AllDone: state.AllEngineersDone()}, nil
}
