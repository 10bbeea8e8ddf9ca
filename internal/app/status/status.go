package status

import (
	"context"
	"fmt"
	"time"

	"github.com/slok/opentown/internal/log"
	"github.com/slok/opentown/internal/model"
	"github.com/slok/opentown/internal/session"
	"github.com/slok/opentown/internal/storage"
)

// ServiceConfig is the configuration for the status service.
type ServiceConfig struct {
	Repository storage.PipelineRepository
	// Sessions is optional, when set the engineer sessions liveness is reported.
	Sessions session.Manager
	Config   model.Config
	Logger   log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if c.Config.SessionPrefix == "" {
		c.Config = model.NewDefaultConfig().Merge(c.Config)
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Status"})

	return nil
}

// Service retrieves the pipeline status.
type Service struct {
	repo     storage.PipelineRepository
	sessions session.Manager
	cfg      model.Config
	logger   log.Logger
}

// NewService creates a new status service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:     cfg.Repository,
		sessions: cfg.Sessions,
		cfg:      cfg.Config,
		logger:   cfg.Logger,
	}, nil
}

// EngineerStatus is an engineer of the roster with its session liveness.
type EngineerStatus struct {
	model.Engineer
	// SessionAlive is nil when sessions are not checked.
	SessionAlive *bool
}

// Result is the pipeline status.
type Result struct {
	Phase       model.Phase
	QAStatus    model.QAStatus
	ActiveSince *time.Time
	// CurrentTask is nil when there is no current task.
	CurrentTask *model.Task
	Engineers   []EngineerStatus
	TaskCounts  map[model.TaskStatus]int
}

// Run returns the status of the pipeline.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	tasks, state, err := storage.LoadPipeline(ctx, s.repo)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Phase:       state.Phase,
		QAStatus:    state.QAStatus,
		ActiveSince: state.ActiveSince,
		Engineers:   []EngineerStatus{},
		TaskCounts:  tasks.CountByStatus(),
	}

	if state.CurrentTask != nil {
		t, err := tasks.Task(*state.CurrentTask)
		if err != nil {
			s.logger.Warningf("Current task %s is not on the task list", *state.CurrentTask)
			t = &model.Task{ID: *state.CurrentTask}
		}
		res.CurrentTask = t
	}

	for _, e := range state.Engineers {
		es := EngineerStatus{Engineer: e}
		if s.sessions != nil {
			name := e.TmuxSession
			if name == "" {
				name = s.cfg.SessionName(e.ID)
			}
			alive, err := s.sessions.Exists(ctx, name)
			if err != nil {
				s.logger.Debugf("Could not check session %s: %s", name, err)
			}
			es.SessionAlive = &alive
		}
		res.Engineers = append(res.Engineers, es)
	}

	return res, nil
}
