package ceo

import (
	"context"
	"errors"
	"fmt"

	"github.com/slok/opentown/internal/lock"
	"github.com/slok/opentown/internal/log"
	"github.com/slok/opentown/internal/model"
	"github.com/slok/opentown/internal/prompt"
	"github.com/slok/opentown/internal/storage"
)

// ServiceConfig is the configuration for the CEO service.
type ServiceConfig struct {
	Repository  storage.Repository
	Events      storage.EventRepository
	Locker      lock.Locker
	ProjectName string
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
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.CEO"})
	return nil
}

// Service turns the pending work items of the describe document into tasks and returns the
// breakdown instructions.
type Service struct {
	repo        storage.Repository
	events      storage.EventRepository
	locker      lock.Locker
	projectName string
	logger      log.Logger
}

// NewService creates a new CEO service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:        cfg.Repository,
		events:      cfg.Events,
		locker:      cfg.Locker,
		projectName: cfg.ProjectName,
		logger:      cfg.Logger,
	}, nil
}

// Result is the result of the CEO planning.
type Result struct {
	// Items are the pending work items of the describe document.
	Items []string
	// Created are the tasks registered on this run.
	Created []model.Task
	// Tasks are the not done tasks of the items, the ones to break down.
	Tasks  []model.Task
	Prompt string
}

// Run parses the describe document and registers a pending task for each new item. Without
// items it returns model.ErrNothingToDo.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	unlock, err := s.locker.Lock(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = unlock() }()

	text, err := s.repo.GetDescribe(ctx)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("describe document missing: %w", model.ErrNotInitialized)
		}
		return nil, fmt.Errorf("could not load describe document: %w", err)
	}

	items := model.ParseNextItems(text)
	if len(items) == 0 {
		return nil, fmt.Errorf("no pending items on the Next section: %w", model.ErrNothingToDo)
	}

	tasks, err := s.repo.GetTaskList(ctx)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("tasks document missing: %w", model.ErrNotInitialized)
		}
		return nil, fmt.Errorf("could not load tasks: %w", err)
	}

	created := []model.Task{}
	for _, item := range items {
		if tasks.HasTitle(item) {
			continue
		}

		t := model.Task{
			ID:       model.GenerateTaskID(tasks.Tasks),
			Title:    item,
			Status:   model.TaskStatusPending,
			Phase:    model.PhasePlanning,
			Subtasks: []model.Subtask{},
		}
		tasks.Tasks = append(tasks.Tasks, t)
		created = append(created, t)
	}

	if len(created) > 0 {
		if err := s.repo.SaveTaskList(ctx, *tasks); err != nil {
			return nil, fmt.Errorf("could not save tasks: %w", err)
		}
		for _, t := range created {
			storage.RecordEvent(ctx, s.events, s.logger, model.Event{
				Kind:    model.EventKindTaskPlanned,
				TaskID:  t.ID,
				Message: t.Title,
			})
		}
		s.logger.Infof("Registered %d new tasks", len(created))
	}

	toBreak := []model.Task{}
	for _, item := range items {
		for _, t := range tasks.Tasks {
			if t.Title == item && t.Status != model.TaskStatusDone {
				toBreak = append(toBreak, t)
				break
			}
		}
	}

	p, err := prompt.CEO(prompt.CEOData{ProjectName: s.projectName, Tasks: toBreak})
	if err != nil {
		return nil, err
	}

	return &Result{
		Items:   items,
		Created: created,
		Tasks:   toBreak,
		Prompt:  p,
	}, nil
}
