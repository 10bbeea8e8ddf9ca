package engineer

import (
	"context"
	"fmt"

	"github.com/slok/opentown/internal/conventions"
	"github.com/slok/opentown/internal/log"
	"github.com/slok/opentown/internal/model"
	"github.com/slok/opentown/internal/prompt"
	"github.com/slok/opentown/internal/storage"
)

// ServiceConfig is the configuration for the engineer service.
type ServiceConfig struct {
	Repository storage.PipelineRepository
	TownDir    string
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.TownDir == "" {
		return fmt.Errorf("town dir is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Engineer"})
	return nil
}

// Service returns the assignment of an engineer.
type Service struct {
	repo    storage.PipelineRepository
	townDir string
	logger  log.Logger
}

// NewService creates a new engineer service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:    cfg.Repository,
		townDir: cfg.TownDir,
		logger:  cfg.Logger,
	}, nil
}

// Request is the request of an engineer assignment.
type Request struct {
	EngineerID string
}

// Result is the assignment of an engineer.
type Result struct {
	Engineer     model.Engineer
	Subtask      *model.Subtask
	WorktreePath string
	// Done is true when the engineer already finished its work.
	Done   bool
	Prompt string
}

// Run returns the assignment and the instructions of an engineer.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	tasks, state, err := storage.LoadPipeline(ctx, s.repo)
	if err != nil {
		return nil, err
	}

	e, err := state.Engineer(req.EngineerID)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Engineer:     *e,
		WorktreePath: conventions.WorktreePath(s.townDir, e.ID),
		Done:         e.Status == model.EngineerStatusDone,
	}

	data := prompt.EngineerData{
		EngineerID:   e.ID,
		Branch:       e.Branch,
		WorktreePath: res.WorktreePath,
	}
	if e.SubtaskID != nil && state.CurrentTask != nil {
		if st := findSubtask(tasks, *state.CurrentTask, *e.SubtaskID); st != nil {
			res.Subtask = st
			data.SubtaskID = st.ID
			data.SubtaskDesc = st.Desc
		} else {
			s.logger.Warningf("Subtask %s of engineer %s is not on the current task", *e.SubtaskID, e.ID)
		}
	}

	res.Prompt, err = prompt.Engineer(data)
	if err != nil {
		return nil, err
	}

	return res, nil
}

func findSubtask(tasks *model.TaskList, taskID, subtaskID string) *model.Subtask {
	t, err := tasks.Task(taskID)
	if err != nil {
		return nil
	}
	for _, st := range t.Subtasks {
		if st.ID == subtaskID {
			stc := st
			return &stc
		}
	}
	return nil
}
