package attach

import (
	"context"
	"errors"
	"fmt"

	"github.com/slok/opentown/internal/log"
	"github.com/slok/opentown/internal/model"
	"github.com/slok/opentown/internal/session"
	"github.com/slok/opentown/internal/storage"
)

// ServiceConfig is the configuration for the attach service.
type ServiceConfig struct {
	Repository storage.StateRepository
	Sessions   session.Manager
	Config     model.Config
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Sessions == nil {
		return fmt.Errorf("session manager is required")
	}
	c.Config = model.NewDefaultConfig().Merge(c.Config)
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Attach"})
	return nil
}

// Service attaches the terminal to engineer sessions.
type Service struct {
	repo     storage.StateRepository
	sessions session.Manager
	cfg      model.Config
	logger   log.Logger
}

// NewService creates a new attach service.
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

// Request is the request to attach to an engineer session.
type Request struct {
	EngineerID string
}

// Run attaches to the engineer session and blocks until the user detaches.
func (s *Service) Run(ctx context.Context, req Request) error {
	state, err := s.repo.GetState(ctx)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("state document missing: %w", model.ErrNotInitialized)
		}
		return fmt.Errorf("could not load state: %w", err)
	}

	e, err := state.Engineer(req.EngineerID)
	if err != nil {
		return err
	}

	name := e.TmuxSession
	if name == "" {
		name = s.cfg.SessionName(e.ID)
	}

	exists, err := s.sessions.Exists(ctx, name)
	if err != nil {
		return fmt.Errorf("could not check session %s: %w", name, err)
	}
	if !exists {
		return fmt.Errorf("session %s is not running: %w", name, model.ErrNotFound)
	}

	s.logger.Debugf("Attaching to session %s", name)
	if err := s.sessions.Attach(ctx, name); err != nil {
		return fmt.Errorf("could not attach to session %s: %w", name, err)
	}

	return nil
}
