package model

import "fmt"

// TaskStatus represents the state of a task or subtask.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

// Valid returns true if the status is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

// Task is a unit of planned work made of one or more subtasks.
type Task struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Status   TaskStatus `json:"status"`
	Phase    Phase      `json:"phase"`
	Subtasks []Subtask  `json:"subtasks"`
}

// Subtask is an atomic piece of a task assignable to one engineer.
type Subtask struct {
	ID       string     `json:"id"`
	Desc     string     `json:"desc"`
	Assignee *string    `json:"assignee"`
	Status   TaskStatus `json:"status"`
	Branch   *string    `json:"branch"`
}

// TaskList is the tasks document.
type TaskList struct {
	CurrentTask *string `json:"current_task"`
	Tasks       []Task  `json:"tasks"`
}

// NewTaskList returns an empty task list.
func NewTaskList() TaskList {
	return TaskList{Tasks: []Task{}}
}

// Task returns the task with the given ID.
func (l *TaskList) Task(id string) (*Task, error) {
	for i := range l.Tasks {
		if l.Tasks[i].ID == id {
			return &l.Tasks[i], nil
		}
	}
	return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
}

// NextPending returns the first pending task in stored order, nil if there is none.
func (l *TaskList) NextPending() *Task {
	for i := range l.Tasks {
		if l.Tasks[i].Status == TaskStatusPending {
			return &l.Tasks[i]
		}
	}
	return nil
}

// SetStatus sets the status of a task. Unknown IDs are ignored and reported with false.
func (l *TaskList) SetStatus(id string, status TaskStatus) bool {
	t, err := l.Task(id)
	if err != nil {
		return false
	}
	t.Status = status
	return true
}

// HasTitle returns true if a task with the exact title exists.
func (l *TaskList) HasTitle(title string) bool {
	for _, t := range l.Tasks {
		if t.Title == title {
			return true
		}
	}
	return false
}

// CountByStatus counts tasks by status.
func (l *TaskList) CountByStatus() map[TaskStatus]int {
	counts := map[TaskStatus]int{
		TaskStatusPending:    0,
		TaskStatusInProgress: 0,
		TaskStatusDone:       0,
	}
	for _, t := range l.Tasks {
		counts[t.Status]++
	}
	return counts
}

// Clone returns a deep copy of the task list.
func (l TaskList) Clone() TaskList {
	c := TaskList{
		CurrentTask: cloneStrPtr(l.CurrentTask),
		Tasks:       make([]Task, 0, len(l.Tasks)),
	}
	for _, t := range l.Tasks {
		tc := t
		tc.Subtasks = make([]Subtask, 0, len(t.Subtasks))
		for _, st := range t.Subtasks {
			stc := st
			stc.Assignee = cloneStrPtr(st.Assignee)
			stc.Branch = cloneStrPtr(st.Branch)
			tc.Subtasks = append(tc.Subtasks, stc)
		}
		c.Tasks = append(c.Tasks, tc)
	}
	return c
}

// Validate validates the task list.
func (l *TaskList) Validate() error {
	seen := map[string]bool{}
	inProgress := 0
	for _, t := range l.Tasks {
		if t.ID == "" {
			return fmt.Errorf("task id is required: %w", ErrNotValid)
		}
		if seen[t.ID] {
			return fmt.Errorf("duplicated task id %s: %w", t.ID, ErrNotValid)
		}
		seen[t.ID] = true

		if !t.Status.Valid() {
			return fmt.Errorf("task %s has unknown status %q: %w", t.ID, t.Status, ErrNotValid)
		}
		if t.Status == TaskStatusInProgress {
			inProgress++
		}
	}

	if inProgress > 1 {
		return fmt.Errorf("%d tasks in progress, at most one is allowed: %w", inProgress, ErrNotValid)
	}

	return nil
}

// StrPtr returns a pointer to s.
func StrPtr(s string) *string { return &s }

func cloneStrPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
