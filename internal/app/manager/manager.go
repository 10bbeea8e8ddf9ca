package manager

import (
	"context"
	"fmt"
	"time"

	"github.com/slok/opentown/internal/lock"
	"github.com/slok/opentown/internal/log"
	"github.com/slok/opentown/internal/model"
	"github.com/slok/opentown/internal/prompt"
	"github.com/slok/opentown/internal/storage"
)

// ServiceConfig is the configuration for the manager service.
type ServiceConfig struct {
	Repository  storage.PipelineRepository
	Events      storage.EventRepository
	Locker      lock.Locker
	ProjectName string
	TimeNow     func() time.Time
	Logger      log.Logger
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
	if c.ProjectName == "" {
		c.ProjectName = model.DefaultProjectName
	}
	if c.TimeNow == nil {
		c.TimeNow = time.Now
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Manager"})
	return nil
}

// Service returns the instructions to split the current task between engineers.
type Service struct {
	repo        storage.PipelineRepository
	events      storage.EventRepository
	locker      lock.Locker
	projectName string
	timeNow     func() time.Time
	logger      log.Logger
}

// NewService creates a new manager service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:        cfg.Repository,
		events:      cfg.Events,
		locker:      cfg.Locker,
		projectName: cfg.ProjectName,
		timeNow:     cfg.TimeNow,
		logger:      cfg.Logger,
	}, nil
}

// Result is the result of the manager planning.
type Result struct {
	Task model.Task
	// Started is true when the task was selected and started on this run.
	Started bool
	// Engineers is the suggested number of engineers to spawn.
	Engineers int
	Prompt    string
}

// Run returns the manager instructions for the current task. Without a current task the
// first pending one is started. A task without subtasks returns model.ErrNothingToDo.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	unlock, err := s.locker.Lock(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = unlock() }()

	tasks, state, err := storage.LoadPipeline(ctx, s.repo)
	if err != nil {
		return nil, err
	}

	var task *model.Task
	started := false
	if state.CurrentTask != nil && state.Phase != model.PhaseIdle {
		task, err = tasks.Task(*state.CurrentTask)
		if err != nil {
			return nil, fmt.Errorf("current task: %w", err)
		}
	} else {
		task = tasks.NextPending()
		if task == nil {
			return nil, fmt.Errorf("no pending tasks: %w", model.ErrNothingToDo)
		}
		started = true
	}

	if len(task.Subtasks) == 0 {
		return nil, fmt.Errorf("task %s has no subtasks: %w", task.ID, model.ErrNothingToDo)
	}

	if started {
		id := task.ID
		if _, err := model.StartTask(tasks, state, id, s.timeNow()); err != nil {
			return nil, err
		}
		if err := storage.SavePipeline(ctx, s.repo, *tasks, *state); err != nil {
			return nil, err
		}
		storage.RecordEvent(ctx, s.events, s.logger, model.Event{Kind: model.EventKindTaskStarted, TaskID: id})
		s.logger.Infof("Task %s started", id)
	}

	p, err := prompt.Manager(prompt.ManagerData{ProjectName: s.projectName, Task: *task})
	if err != nil {
		return nil, err
	}

	return &Result{
		Task:      *task,
		Started:   started,
		Engineers: len(task.Subtasks),
		Prompt:    p,
	}, nil
}
