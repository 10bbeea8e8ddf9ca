package subtaskadd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/slok/opentown/internal/lock"
	"github.com/slok/opentown/internal/log"
	"github.com/slok/opentown/internal/model"
	"github.com/slok/opentown/internal/storage"
)

// ServiceConfig is the configuration for the subtask add service.
type ServiceConfig struct {
	Repository storage.TaskRepository
	Locker     lock.Locker
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Locker == nil {
		c.Locker = lock.Noop
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.SubtaskAdd"})
	return nil
}

// Service adds subtasks to tasks.
type Service struct {
	repo   storage.TaskRepository
	locker lock.Locker
	logger log.Logger
}

// NewService creates a new subtask add service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		locker: cfg.Locker,
		logger: cfg.Logger,
	}, nil
}

// Request is the request to add a subtask.
type Request struct {
	TaskID string
	Desc   string
}

func (r *Request) validate() error {
	r.TaskID = strings.TrimSpace(r.TaskID)
	r.Desc = strings.TrimSpace(r.Desc)
	if r.TaskID == "" {
		return fmt.Errorf("task id is required")
	}
	if r.Desc == "" {
		return fmt.Errorf("subtask description is required")
	}
	return nil
}

// Result is the result of adding a subtask.
type Result struct {
	Subtask model.Subtask
}

// Run appends a pending and unassigned subtask to the task.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w: %w", err, model.ErrNotValid)
	}

	unlock, err := s.locker.Lock(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = unlock() }()

	tasks, err := s.repo.GetTaskList(ctx)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("tasks document missing: %w", model.ErrNotInitialized)
		}
		return nil, fmt.Errorf("could not load tasks: %w", err)
	}

	t, err := tasks.Task(req.TaskID)
	if err != nil {
		return nil, err
	}
	if t.Status == model.TaskStatusDone {
		return nil, fmt.Errorf("task %s is already done: %w", t.ID, model.ErrInvalidState)
	}

	st := model.Subtask{
		ID:     model.SubtaskID(t.ID, t.Subtasks),
		Desc:   req.Desc,
		Status: model.TaskStatusPending,
	}
	t.Subtasks = append(t.Subtasks, st)

	if err := s.repo.SaveTaskList(ctx, *tasks); err != nil {
		return nil, fmt.Errorf("could not save tasks: %w", err)
	}
	s.logger.Infof("Subtask %s added to %s", st.ID, t.ID)

	return &Result{Subtask: st}, nil
}
