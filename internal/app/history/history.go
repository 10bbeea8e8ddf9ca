package history

import (
	"context"
	"fmt"

	"github.com/slok/opentown/internal/log"
	"github.com/slok/opentown/internal/model"
	"github.com/slok/opentown/internal/storage"
)

// InitChecker tells if the town directory exists.
type InitChecker interface {
	Initialized(ctx context.Context) (bool, error)
}

// ServiceConfig is the configuration for the history service.
type ServiceConfig struct {
	InitChecker InitChecker
	Events      storage.EventRepository
	Logger      log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.InitChecker == nil {
		return fmt.Errorf("init checker is required")
	}
	if c.Events == nil {
		return fmt.Errorf("event repository is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.History"})
	return nil
}

// Service lists the pipeline journal.
type Service struct {
	init   InitChecker
	events storage.EventRepository
	logger log.Logger
}

// NewService creates a new history service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		init:   cfg.InitChecker,
		events: cfg.Events,
		logger: cfg.Logger,
	}, nil
}

// Request is the request to list the journal.
type Request struct {
	TaskID string
	Limit  int
}

// Run returns the journal events newest first.
func (s *Service) Run(ctx context.Context, req Request) ([]model.Event, error) {
	if req.Limit < 0 {
		return nil, fmt.Errorf("limit can't be negative: %w", model.ErrNotValid)
	}

	ok, err := s.init.Initialized(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not check town directory: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("town directory missing: %w", model.ErrNotInitialized)
	}

	events, err := s.events.ListEvents(ctx, storage.ListEventsOpts{TaskID: req.TaskID, Limit: req.Limit})
	if err != nil {
		return nil, fmt.Errorf("could not list events: %w", err)
	}

	s.logger.Debugf("Found %d events", len(events))
	return events, nil
}
