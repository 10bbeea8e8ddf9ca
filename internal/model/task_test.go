package model_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/opentown/internal/model"
)

func TestTaskListNextPending(t *testing.T) {
	tests := map[string]struct {
		tasks []model.Task
		expID string
	}{
		"No tasks should return nothing": {},

		"The first pending task should be returned after done and in progress ones.": {
			tasks: []model.Task{
				{ID: "task-001", Status: model.TaskStatusDone},
				{ID: "task-002", Status: model.TaskStatusInProgress},
				{ID: "task-003", Status: model.TaskStatusPending},
				{ID: "task-004", Status: model.TaskStatusPending},
			},
			expID: "task-003",
		},

		"No pending tasks should return nothing.": {
			tasks: []model.Task{
				{ID: "task-001", Status: model.TaskStatusDone},
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			l := model.TaskList{Tasks: test.tasks}
			got := l.NextPending()
			if test.expID == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, test.expID, got.ID)
		})
	}
}

func TestTaskListSetStatus(t *testing.T) {
	l := model.TaskList{Tasks: []model.Task{{ID: "task-001", Status: model.TaskStatusPending}}}

	assert.True(t, l.SetStatus("task-001", model.TaskStatusInProgress))
	assert.Equal(t, model.TaskStatusInProgress, l.Tasks[0].Status)

	assert.False(t, l.SetStatus("task-404", model.TaskStatusDone))
	assert.Equal(t, model.TaskStatusInProgress, l.Tasks[0].Status)
}

func TestTaskListTaskNotFound(t *testing.T) {
	l := model.NewTaskList()
	_, err := l.Task("task-001")
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestTaskListCountByStatus(t *testing.T) {
	l := model.TaskList{Tasks: []model.Task{
		{ID: "task-001", Status: model.TaskStatusDone},
		{ID: "task-002", Status: model.TaskStatusPending},
		{ID: "task-003", Status: model.TaskStatusPending},
	}}

	assert.Equal(t, map[model.TaskStatus]int{
		model.TaskStatusPending:    2,
		model.TaskStatusInProgress: 0,
		model.TaskStatusDone:       1,
	}, l.CountByStatus())
}

func TestTaskListCloneIsDeep(t *testing.T) {
	l := model.TaskList{
		CurrentTask: model.StrPtr("task-001"),
		Tasks: []model.Task{{
			ID:       "task-001",
			Subtasks: []model.Subtask{{ID: "001-a", Assignee: model.StrPtr("e1")}},
		}},
	}

	c := l.Clone()
	*c.CurrentTask = "changed"
	*c.Tasks[0].Subtasks[0].Assignee = "changed"
	c.Tasks[0].Subtasks[0].Desc = "changed"

	assert.Equal(t, "task-001", *l.CurrentTask)
	assert.Equal(t, "e1", *l.Tasks[0].Subtasks[0].Assignee)
	assert.Equal(t, "", l.Tasks[0].Subtasks[0].Desc)
}

func TestTaskListValidate(t *testing.T) {
	tests := map[string]struct {
		tasks  []model.Task
		expErr bool
	}{
		"A valid list should not fail.": {
			tasks: []model.Task{
				{ID: "task-001", Status: model.TaskStatusInProgress},
				{ID: "task-002", Status: model.TaskStatusPending},
			},
		},

		"Two tasks in progress should fail.": {
			tasks: []model.Task{
				{ID: "task-001", Status: model.TaskStatusInProgress},
				{ID: "task-002", Status: model.TaskStatusInProgress},
			},
			expErr: true,
		},

		"Duplicated IDs should fail.": {
			tasks: []model.Task{
				{ID: "task-001", Status: model.TaskStatusPending},
				{ID: "task-001", Status: model.TaskStatusPending},
			},
			expErr: true,
		},

		"Unknown statuses should fail.": {
			tasks:  []model.Task{{ID: "task-001", Status: "wat"}},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			l := model.TaskList{Tasks: test.tasks}
			err := l.Validate()
			if test.expErr {
				assert.True(t, errors.Is(err, model.ErrNotValid))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
