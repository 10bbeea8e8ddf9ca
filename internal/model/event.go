package model

import "time"

// EventKind is the kind of a pipeline journal event.
type EventKind string

const (
	EventKindTaskPlanned      EventKind = "task_planned"
	EventKindTaskStarted      EventKind = "task_started"
	EventKindEngineersSpawned EventKind = "engineers_spawned"
	EventKindEngineerDone     EventKind = "engineer_done"
	EventKindPhaseQA          EventKind = "phase_qa"
	EventKindTaskCompleted    EventKind = "task_completed"
)

// Event is a pipeline journal entry.
type Event struct {
	ID         string
	Kind       EventKind
	TaskID     string
	EngineerID string
	Message    string
	CreatedAt  time.Time
}
