package model

import (
	"fmt"
	"time"
)

// Phase is the pipeline stage.
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhasePlanning       Phase = "planning"
	PhaseImplementation Phase = "implementation"
	PhaseQA             Phase = "qa"
	PhaseComplete       Phase = "complete"
)

// QAStatus tells if the QA phase can start.
type QAStatus string

const (
	QAStatusWaiting QAStatus = "waiting"
	QAStatusReady   QAStatus = "ready"
)

// EngineerStatus represents the state of an engineer worker.
type EngineerStatus string

const (
	EngineerStatusWorking EngineerStatus = "working"
	EngineerStatusDone    EngineerStatus = "done"
)

// Engineer is the ephemeral worker record that tracks one subtask execution session.
type Engineer struct {
	ID          string         `json:"id"`
	Status      EngineerStatus `json:"status"`
	Branch      string         `json:"branch"`
	TmuxSession string         `json:"tmux_session"`
	SubtaskID   *string        `json:"subtask_id"`
}

// PipelineState is the single source of truth of what is happening now.
type PipelineState struct {
	Phase       Phase      `json:"phase"`
	ActiveSince *time.Time `json:"active_since"`
	CurrentTask *string    `json:"current_task"`
	Engineers   []Engineer `json:"engineers"`
	QAStatus    QAStatus   `json:"qa_status"`
	// DescribeMoved is set by a completion once the task item is on the Done section.
	DescribeMoved bool `json:"describe_moved,omitempty"`
}

// NewPipelineState returns the idle state a project starts with.
func NewPipelineState() PipelineState {
	return PipelineState{
		Phase:     PhaseIdle,
		Engineers: []Engineer{},
		QAStatus:  QAStatusWaiting,
	}
}

// Engineer returns the engineer with the given ID.
func (s *PipelineState) Engineer(id string) (*Engineer, error) {
	for i := range s.Engineers {
		if s.Engineers[i].ID == id {
			return &s.Engineers[i], nil
		}
	}
	return nil, fmt.Errorf("engineer %s: %w", id, ErrNotFound)
}

// AllEngineersDone returns true when there is at least one engineer and all of them are done.
// An empty roster is never done.
func (s *PipelineState) AllEngineersDone() bool {
	if len(s.Engineers) == 0 {
		return false
	}
	for _, e := range s.Engineers {
		if e.Status != EngineerStatusDone {
			return false
		}
	}
	return true
}

// QAAllowed returns true if the QA step can run.
func (s *PipelineState) QAAllowed() bool {
	return s.Phase == PhaseQA || s.QAStatus == QAStatusReady
}

// Branches returns the non empty engineer branches in roster order.
func (s *PipelineState) Branches() []string {
	branches := []string{}
	for _, e := range s.Engineers {
		if e.Branch != "" {
			branches = append(branches, e.Branch)
		}
	}
	return branches
}

// Reset clears the current task and the roster, leaving the pipeline idle.
func (s *PipelineState) Reset() {
	s.Phase = PhaseIdle
	s.ActiveSince = nil
	s.CurrentTask = nil
	s.Engineers = []Engineer{}
	s.QAStatus = QAStatusWaiting
	s.DescribeMoved = false
}

// Clone returns a deep copy of the state.
func (s PipelineState) Clone() PipelineState {
	c := s
	if s.ActiveSince != nil {
		t := *s.ActiveSince
		c.ActiveSince = &t
	}
	c.CurrentTask = cloneStrPtr(s.CurrentTask)
	c.Engineers = make([]Engineer, 0, len(s.Engineers))
	for _, e := range s.Engineers {
		ec := e
		ec.SubtaskID = cloneStrPtr(e.SubtaskID)
		c.Engineers = append(c.Engineers, ec)
	}
	return c
}

// Validate checks the state invariants against the task list.
func (s *PipelineState) Validate(tasks TaskList) error {
	if s.Phase == PhaseImplementation && len(s.Engineers) == 0 {
		return fmt.Errorf("implementation phase without engineers: %w", ErrNotValid)
	}

	refs := map[string]string{}
	for _, e := range s.Engineers {
		if e.SubtaskID != nil {
			refs[*e.SubtaskID] = e.ID
		}
	}

	if s.CurrentTask == nil {
		return nil
	}
	t, err := tasks.Task(*s.CurrentTask)
	if err != nil {
		return fmt.Errorf("current task: %w", err)
	}
	for _, st := range t.Subtasks {
		eng, referenced := refs[st.ID]
		switch {
		case st.Assignee != nil && !referenced:
			return fmt.Errorf("subtask %s assigned to %s but no engineer references it: %w", st.ID, *st.Assignee, ErrNotValid)
		case st.Assignee == nil && referenced:
			return fmt.Errorf("subtask %s referenced by %s but unassigned: %w", st.ID, eng, ErrNotValid)
		case st.Assignee != nil && *st.Assignee != eng:
			return fmt.Errorf("subtask %s assigned to %s but referenced by %s: %w", st.ID, *st.Assignee, eng, ErrNotValid)
		}
	}

	return nil
}
