package model

import (
	"fmt"
	"time"
)

// StartTask makes a task the current one: the pipeline moves to planning and the task is
// marked in progress. Starting the task that is already current on an active pipeline
// resumes it without changes and returns true.
func StartTask(tasks *TaskList, state *PipelineState, id string, now time.Time) (resumed bool, err error) {
	t, err := tasks.Task(id)
	if err != nil {
		return false, err
	}

	if state.CurrentTask != nil && state.Phase != PhaseIdle {
		if *state.CurrentTask == id {
			return true, nil
		}
		return false, fmt.Errorf("task %s is current on %s phase: %w", *state.CurrentTask, state.Phase, ErrInvalidState)
	}

	if t.Status == TaskStatusDone {
		return false, fmt.Errorf("task %s is already done: %w", id, ErrInvalidState)
	}

	// With an idle pipeline no other task can be in progress.
	for i := range tasks.Tasks {
		if tasks.Tasks[i].ID != id && tasks.Tasks[i].Status == TaskStatusInProgress {
			tasks.Tasks[i].Status = TaskStatusPending
		}
	}

	t.Status = TaskStatusInProgress
	t.Phase = PhasePlanning
	tasks.CurrentTask = StrPtr(id)

	since := now.UTC()
	state.Phase = PhasePlanning
	state.ActiveSince = &since
	state.CurrentTask = StrPtr(id)
	state.Engineers = []Engineer{}
	state.QAStatus = QAStatusWaiting

	return false, nil
}

// AdvanceToQA moves an implementation pipeline to QA when all the engineers are done.
// Returns true if the transition happened.
func AdvanceToQA(tasks *TaskList, state *PipelineState) bool {
	if state.Phase != PhaseImplementation || !state.AllEngineersDone() {
		return false
	}

	state.Phase = PhaseQA
	state.QAStatus = QAStatusReady
	if state.CurrentTask != nil {
		if t, err := tasks.Task(*state.CurrentTask); err == nil {
			t.Phase = PhaseQA
		}
	}

	return true
}
