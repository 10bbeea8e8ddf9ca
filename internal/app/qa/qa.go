package qa

import (
	"context"
	"errors"
	"fmt"

	"github.com/slok/opentown/internal/log"
	"github.com/slok/opentown/internal/model"
	"github.com/slok/opentown/internal/prompt"
	"github.com/slok/opentown/internal/storage"
)

// ServiceConfig is the configuration for the QA service.
type ServiceConfig struct {
	Repository storage.StateRepository
	Config     model.Config
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	c.Config = model.NewDefaultConfig().Merge(c.Config)
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.QA"})
	return nil
}

// Service returns the merge instructions of the QA phase.
type Service struct {
	repo   storage.StateRepository
	cfg    model.Config
	logger log.Logger
}

// NewService creates a new QA service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		cfg:    cfg.Config,
		logger: cfg.Logger,
	}, nil
}

// Result is the QA merge plan.
type Result struct {
	// Branches are the engineer branches to merge in roster order.
	Branches    []string
	BaseBranch  string
	TestCommand string
	Prompt      string
	// Steps are the manual merge steps.
	Steps string
}

// Run returns the QA instructions. It never changes the pipeline.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	state, err := s.repo.GetState(ctx)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("state document missing: %w", model.ErrNotInitialized)
		}
		return nil, fmt.Errorf("could not load state: %w", err)
	}

	if !state.QAAllowed() {
		return nil, fmt.Errorf("QA not ready on %s phase: %w", state.Phase, model.ErrInvalidState)
	}

	branches := state.Branches()
	if len(branches) == 0 {
		return nil, fmt.Errorf("no engineer branches to merge: %w", model.ErrNothingToDo)
	}

	data := prompt.QAData{
		ProjectName: s.cfg.ProjectName,
		Branches:    branches,
		BaseBranch:  s.cfg.BaseBranch,
		TestCommand: s.cfg.TestCommand,
	}
	p, err := prompt.QA(data)
	if err != nil {
		return nil, err
	}
	steps, err := prompt.QASteps(data)
	if err != nil {
		return nil, err
	}

	s.logger.Debugf("QA plan with %d branches", len(branches))

	return &Result{
		Branches:    branches,
		BaseBranch:  s.cfg.BaseBranch,
		TestCommand: s.cfg.TestCommand,
		Prompt:      p,
		Steps:       steps,
	}, nil
}
