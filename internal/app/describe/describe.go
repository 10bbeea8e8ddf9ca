package describe

import (
	"context"
	"errors"
	"fmt"

	"github.com/slok/opentown/internal/log"
	"github.com/slok/opentown/internal/model"
	"github.com/slok/opentown/internal/storage"
)

// Editor opens a file for editing and waits until the user finishes.
type Editor interface {
	Edit(ctx context.Context, path string) error
}

// ServiceConfig is the configuration for the describe service.
type ServiceConfig struct {
	Repository storage.DescribeRepository
	Editor     Editor
	// DescribePath is the path of the describe document opened on the editor.
	DescribePath string
	Logger       log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Editor == nil {
		return fmt.Errorf("editor is required")
	}
	if c.DescribePath == "" {
		return fmt.Errorf("describe path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Describe"})
	return nil
}

// Service opens the describe document on the user editor.
type Service struct {
	repo   storage.DescribeRepository
	editor Editor
	path   string
	logger log.Logger
}

// NewService creates a new describe service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		editor: cfg.Editor,
		path:   cfg.DescribePath,
		logger: cfg.Logger,
	}, nil
}

// Result is the result of editing the describe document.
type Result struct {
	// NextItems are the pending work items after editing.
	NextItems []string
}

// Run opens the editor and returns the pending work items once it exits.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	if _, err := s.repo.GetDescribe(ctx); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("describe document missing: %w", model.ErrNotInitialized)
		}
		return nil, fmt.Errorf("could not load describe document: %w", err)
	}

	if err := s.editor.Edit(ctx, s.path); err != nil {
		return nil, fmt.Errorf("could not edit describe document: %w", err)
	}

	text, err := s.repo.GetDescribe(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not load describe document: %w", err)
	}

	items := model.ParseNextItems(text)
	s.logger.Debugf("Describe document has %d pending items", len(items))

	return &Result{NextItems: items}, nil
}
