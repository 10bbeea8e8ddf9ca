package initialize

import (
	"context"
	"errors"
	"fmt"

	"github.com/slok/opentown/internal/log"
	"github.com/slok/opentown/internal/model"
	"github.com/slok/opentown/internal/storage"
)

// ServiceConfig is the configuration for the init service.
type ServiceConfig struct {
	Repository       storage.Repository
	ConfigRepository storage.ConfigRepository
	// ConfigPath is the project configuration file path.
	ConfigPath string
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.ConfigRepository == nil {
		return fmt.Errorf("config repository is required")
	}
	if c.ConfigPath == "" {
		return fmt.Errorf("config path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Init"})
	return nil
}

// Service initializes the town directory of a project.
type Service struct {
	repo       storage.Repository
	configRepo storage.ConfigRepository
	configPath string
	logger     log.Logger
}

// NewService creates a new init service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:       cfg.Repository,
		configRepo: cfg.ConfigRepository,
		configPath: cfg.ConfigPath,
		logger:     cfg.Logger,
	}, nil
}

// Request represents the init request parameters.
type Request struct {
	// ProjectName is used on the describe document title, defaults to model.DefaultProjectName.
	ProjectName string
}

// Result is the result of the initialization.
type Result struct {
	// Seeded are the documents that have been created.
	Seeded []string
}

// Run creates the town directory and seeds the documents that don't exist. An already
// initialized project returns model.ErrAlreadyExists.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	ok, err := s.repo.Initialized(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not check initialization: %w", err)
	}
	if ok {
		return nil, fmt.Errorf("town directory: %w", model.ErrAlreadyExists)
	}

	if err := s.repo.Init(ctx); err != nil {
		return nil, fmt.Errorf("could not create town directory: %w", err)
	}

	res := &Result{Seeded: []string{}}

	_, err = s.repo.GetDescribe(ctx)
	if err := s.seed(err, "describe", res, func() error {
		return s.repo.SaveDescribe(ctx, model.NewDescribeDocument(req.ProjectName))
	}); err != nil {
		return nil, err
	}

	_, err = s.repo.GetTaskList(ctx)
	if err := s.seed(err, "tasks", res, func() error {
		return s.repo.SaveTaskList(ctx, model.NewTaskList())
	}); err != nil {
		return nil, err
	}

	_, err = s.repo.GetState(ctx)
	if err := s.seed(err, "state", res, func() error {
		return s.repo.SaveState(ctx, model.NewPipelineState())
	}); err != nil {
		return nil, err
	}

	_, err = s.configRepo.GetConfig(ctx, s.configPath)
	if err := s.seed(err, "config", res, func() error {
		cfg := model.NewDefaultConfig()
		if req.ProjectName != "" {
			cfg.ProjectName = req.ProjectName
		}
		return s.configRepo.SaveConfig(ctx, s.configPath, cfg)
	}); err != nil {
		return nil, err
	}

	s.logger.Infof("Town initialized, seeded %d documents", len(res.Seeded))
	return res, nil
}

// seed runs save when the get error says the document is missing.
func (s *Service) seed(getErr error, name string, res *Result, save func() error) error {
	switch {
	case getErr == nil:
		return nil
	case !errors.Is(getErr, model.ErrNotFound):
		return fmt.Errorf("could not check %s document: %w", name, getErr)
	}

	if err := save(); err != nil {
		return fmt.Errorf("could not seed %s document: %w", name, err)
	}
	res.Seeded = append(res.Seeded, name)
	return nil
}
