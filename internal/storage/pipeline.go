package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/slok/opentown/internal/log"
	"github.com/slok/opentown/internal/model"
)

// ConfigRepository persists the project configuration files.
type ConfigRepository interface {
	// GetConfig returns model.ErrNotFound when the file does not exist.
	GetConfig(ctx context.Context, path string) (model.Config, error)
	SaveConfig(ctx context.Context, path string, cfg model.Config) error
}

// PipelineRepository is the part of the repository the pipeline use cases work with.
type PipelineRepository interface {
	TaskRepository
	StateRepository
}

// LoadPipeline loads the tasks and state documents. A missing document means the project
// has not been initialized and is returned as model.ErrNotInitialized.
func LoadPipeline(ctx context.Context, repo PipelineRepository) (*model.TaskList, *model.PipelineState, error) {
	tasks, err := repo.GetTaskList(ctx)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, nil, fmt.Errorf("tasks document missing: %w", model.ErrNotInitialized)
		}
		return nil, nil, fmt.Errorf("could not load tasks: %w", err)
	}

	state, err := repo.GetState(ctx)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, nil, fmt.Errorf("state document missing: %w", model.ErrNotInitialized)
		}
		return nil, nil, fmt.Errorf("could not load state: %w", err)
	}

	return tasks, state, nil
}

// SavePipeline saves the tasks and the state documents, tasks first.
func SavePipeline(ctx context.Context, repo PipelineRepository, tasks model.TaskList, state model.PipelineState) error {
	if err := repo.SaveTaskList(ctx, tasks); err != nil {
		return fmt.Errorf("could not save tasks: %w", err)
	}
	if err := repo.SaveState(ctx, state); err != nil {
		return fmt.Errorf("could not save state: %w", err)
	}
	return nil
}

// RecordEvent appends an event to the journal. The journal is informative, failures are
// logged and never returned.
func RecordEvent(ctx context.Context, repo EventRepository, logger log.Logger, e model.Event) {
	if repo == nil {
		return
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if err := repo.AppendEvent(ctx, e); err != nil {
		logger.Warningf("Could not record %s event: %s", e.Kind, err)
	}
}
