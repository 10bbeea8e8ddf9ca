package complete

import (
	"context"
	"errors"
	"fmt"

	"github.com/slok/opentown/internal/conventions"
	"github.com/slok/opentown/internal/lock"
	"github.com/slok/opentown/internal/log"
	"github.com/slok/opentown/internal/model"
	"github.com/slok/opentown/internal/session"
	"github.com/slok/opentown/internal/storage"
	"github.com/slok/opentown/internal/worktree"
)

// ServiceConfig is the configuration for the complete service.
type ServiceConfig struct {
	Repository storage.Repository
	Events     storage.EventRepository
	Locker     lock.Locker
	Worktrees  worktree.Manager
	Sessions   session.Manager
	Config     model.Config
	TownDir    string
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Worktrees == nil {
		return fmt.Errorf("worktree manager is required")
	}
	if c.Sessions == nil {
		return fmt.Errorf("session manager is required")
	}
	if c.TownDir == "" {
		return fmt.Errorf("town dir is required")
	}
	if c.Events == nil {
		c.Events = storage.NoopEventRepository
	}
	if c.Locker == nil {
		c.Locker = lock.Noop
	}
	c.Config = model.NewDefaultConfig().Merge(c.Config)
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Complete"})
	return nil
}

// Service finishes the current task and leaves the pipeline idle.
type Service struct {
	repo      storage.Repository
	events    storage.EventRepository
	locker    lock.Locker
	worktrees worktree.Manager
	sessions  session.Manager
	cfg       model.Config
	townDir   string
	logger    log.Logger
}

// NewService creates a new complete service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:      cfg.Repository,
		events:    cfg.Events,
		locker:    cfg.Locker,
		worktrees: cfg.Worktrees,
		sessions:  cfg.Sessions,
		cfg:       cfg.Config,
		townDir:   cfg.TownDir,
		logger:    cfg.Logger,
	}, nil
}

// Result is the result of completing a task.
type Result struct {
	Task model.Task
	// DescribeUpdated is true when the task item was moved to the Done section.
	DescribeUpdated  bool
	RemovedWorktrees []string
	KilledSessions   []string
	// Warnings are the cleanup steps that failed, they don't fail the completion.
	Warnings []string
}

// Run marks the current task as done, moves its describe item to Done, cleans the engineer
// worktrees and sessions and resets the pipeline. An interrupted completion finishes on retry.
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

	if state.Phase != model.PhaseComplete && !state.QAAllowed() {
		return nil, fmt.Errorf("task can't be completed on %s phase: %w", state.Phase, model.ErrInvalidState)
	}
	if state.CurrentTask == nil {
		return nil, fmt.Errorf("no current task: %w", model.ErrInvalidState)
	}

	task, err := tasks.Task(*state.CurrentTask)
	if err != nil {
		return nil, fmt.Errorf("current task: %w", err)
	}

	resumed := state.Phase == model.PhaseComplete
	if !resumed {
		state.Phase = model.PhaseComplete
		task.Status = model.TaskStatusDone
		task.Phase = model.PhaseComplete
		if err := storage.SavePipeline(ctx, s.repo, *tasks, *state); err != nil {
			return nil, err
		}
		s.logger.Debugf("Task %s marked as done", task.ID)
	}

	res := &Result{
		RemovedWorktrees: []string{},
		KilledSessions:   []string{},
		Warnings:         []string{},
	}
	warn := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		s.logger.Warningf("%s", msg)
		res.Warnings = append(res.Warnings, msg)
	}

	if !state.DescribeMoved {
		moved, err := s.moveToDone(ctx, task.Title, resumed)
		switch {
		case err != nil:
			warn("Could not update describe document: %s", err)
		default:
			res.DescribeUpdated = moved
			state.DescribeMoved = true
			if err := storage.SavePipeline(ctx, s.repo, *tasks, *state); err != nil {
				return nil, err
			}
		}
	}

	for _, e := range state.Engineers {
		path := conventions.WorktreePath(s.townDir, e.ID)
		if err := s.worktrees.Remove(ctx, path); err != nil {
			warn("Could not remove worktree %s: %s", path, err)
		} else {
			res.RemovedWorktrees = append(res.RemovedWorktrees, path)
		}

		name := e.TmuxSession
		if name == "" {
			name = s.cfg.SessionName(e.ID)
		}
		exists, err := s.sessions.Exists(ctx, name)
		if err != nil || !exists {
			continue
		}
		if err := s.sessions.Kill(ctx, name); err != nil {
			warn("Could not kill session %s: %s", name, err)
		} else {
			res.KilledSessions = append(res.KilledSessions, name)
		}
	}

	state.Reset()
	tasks.CurrentTask = nil
	if err := storage.SavePipeline(ctx, s.repo, *tasks, *state); err != nil {
		return nil, err
	}
	storage.RecordEvent(ctx, s.events, s.logger, model.Event{
		Kind:    model.EventKindTaskCompleted,
		TaskID:  task.ID,
		Message: task.Title,
	})
	s.logger.Infof("Task %s completed", task.ID)

	res.Task = *task
	return res, nil
}

// moveToDone moves the task item of the describe document to Done. A resumed completion
// whose item is already on Done moves nothing.
func (s *Service) moveToDone(ctx context.Context, title string, resumed bool) (bool, error) {
	text, err := s.repo.GetDescribe(ctx)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if resumed && model.HasDoneItem(text, title) {
		s.logger.Debugf("Describe item %q already on Done", title)
		return false, nil
	}

	updated, moved := model.MoveToDone(text, title)
	if !moved {
		return false, nil
	}

	if err := s.repo.SaveDescribe(ctx, updated); err != nil {
		return false, err
	}
	return true, nil
}
