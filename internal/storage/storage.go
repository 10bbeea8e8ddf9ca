package storage

//go:generate mockery --case underscore --output storagemock --outpkg storagemock --name Repository

import (
	"context"

	"github.com/slok/opentown/internal/model"
)

// TaskRepository persists the tasks document.
type TaskRepository interface {
	// GetTaskList returns model.ErrNotFound when the document does not exist.
	GetTaskList(ctx context.Context) (*model.TaskList, error)
	// SaveTaskList overwrites the whole document.
	SaveTaskList(ctx context.Context, l model.TaskList) error
}

// StateRepository persists the pipeline state document.
type StateRepository interface {
	// GetState returns model.ErrNotFound when the document does not exist.
	GetState(ctx context.Context) (*model.PipelineState, error)
	// SaveState overwrites the whole document.
	SaveState(ctx context.Context, s model.PipelineState) error
}

// DescribeRepository persists the describe document.
type DescribeRepository interface {
	// GetDescribe returns model.ErrNotFound when the document does not exist.
	GetDescribe(ctx context.Context) (string, error)
	SaveDescribe(ctx context.Context, content string) error
}

// Repository is the interface for the project documents persistence.
type Repository interface {
	TaskRepository
	StateRepository
	DescribeRepository

	// Init creates the storage layout. It doesn't create any document.
	Init(ctx context.Context) error
	// Initialized returns true if the storage layout exists.
	Initialized(ctx context.Context) (bool, error)
}

// ListEventsOpts are the options to list journal events.
type ListEventsOpts struct {
	// TaskID filters by task when not empty.
	TaskID string
	// Limit the number of returned events, 0 means no limit.
	Limit int
}

// EventRepository is the pipeline journal.
type EventRepository interface {
	AppendEvent(ctx context.Context, e model.Event) error
	// ListEvents returns events newest first.
	ListEvents(ctx context.Context, opts ListEventsOpts) ([]model.Event, error)
}

// NoopEventRepository discards events.
var NoopEventRepository EventRepository = noopEvents{}

type noopEvents struct{}

func (noopEvents) AppendEvent(context.Context, model.Event) error { return nil }
func (noopEvents) ListEvents(context.Context, ListEventsOpts) ([]model.Event, error) {
	return []model.Event{}, nil
}
