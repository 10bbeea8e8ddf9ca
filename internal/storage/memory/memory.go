package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/opentown/internal/log"
	"github.com/slok/opentown/internal/model"
	"github.com/slok/opentown/internal/storage"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.Repository and storage.EventRepository.
type Repository struct {
	initialized bool
	tasks       *model.TaskList
	state       *model.PipelineState
	describe    *string
	events      []model.Event
	mu          sync.RWMutex
	logger      log.Logger
}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		logger: cfg.Logger,
	}, nil
}

// Init marks the repository as initialized.
func (r *Repository) Init(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.initialized = true
	return nil
}

// Initialized returns true after Init has been called.
func (r *Repository) Initialized(ctx context.Context) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.initialized, nil
}

// GetTaskList retrieves a copy of the tasks document.
func (r *Repository) GetTaskList(ctx context.Context) (*model.TaskList, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.tasks == nil {
		return nil, fmt.Errorf("tasks: %w", model.ErrNotFound)
	}

	l := r.tasks.Clone()
	return &l, nil
}

// SaveTaskList replaces the tasks document.
func (r *Repository) SaveTaskList(ctx context.Context, l model.TaskList) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := l.Clone()
	r.tasks = &c
	r.logger.Debugf("Saved task list with %d tasks", len(c.Tasks))

	return nil
}

// GetState retrieves a copy of the pipeline state.
func (r *Repository) GetState(ctx context.Context) (*model.PipelineState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.state == nil {
		return nil, fmt.Errorf("state: %w", model.ErrNotFound)
	}

	s := r.state.Clone()
	return &s, nil
}

// SaveState replaces the pipeline state.
func (r *Repository) SaveState(ctx context.Context, s model.PipelineState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := s.Clone()
	r.state = &c
	r.logger.Debugf("Saved pipeline state on phase %s", c.Phase)

	return nil
}

// GetDescribe retrieves the describe document.
func (r *Repository) GetDescribe(ctx context.Context) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.describe == nil {
		return "", fmt.Errorf("describe: %w", model.ErrNotFound)
	}

	return *r.describe, nil
}

// SaveDescribe replaces the describe document.
func (r *Repository) SaveDescribe(ctx context.Context, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.describe = &content
	return nil
}

// AppendEvent stores an event in the journal.
func (r *Repository) AppendEvent(ctx context.Context, e model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.ID == "" {
		e.ID = ulid.MustNew(ulid.Timestamp(e.CreatedAt), ulid.DefaultEntropy()).String()
	}
	for _, existing := range r.events {
		if existing.ID == e.ID {
			return fmt.Errorf("event %s: %w", e.ID, model.ErrAlreadyExists)
		}
	}

	r.events = append(r.events, e)
	return nil
}

// ListEvents lists the journal events, newest first.
func (r *Repository) ListEvents(ctx context.Context, opts storage.ListEventsOpts) ([]model.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := []model.Event{}
	for _, e := range r.events {
		if opts.TaskID != "" && e.TaskID != opts.TaskID {
			continue
		}
		events = append(events, e)
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].ID > events[j].ID
		}
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})

	if opts.Limit > 0 && len(events) > opts.Limit {
		events = events[:opts.Limit]
	}

	return events, nil
}

var (
	_ storage.Repository      = &Repository{}
	_ storage.EventRepository = &Repository{}
)
