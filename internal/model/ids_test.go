package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/opentown/internal/model"
)

func TestGenerateTaskID(t *testing.T) {
	tests := map[string]struct {
		existing []model.Task
		expID    string
	}{
		"No tasks should start at task-001.": {
			existing: nil,
			expID:    "task-001",
		},

		"The next ID should follow the highest one.": {
			existing: []model.Task{{ID: "task-003"}, {ID: "task-007"}},
			expID:    "task-008",
		},

		"Order should not matter.": {
			existing: []model.Task{{ID: "task-010"}, {ID: "task-002"}},
			expID:    "task-011",
		},

		"Malformed IDs should be ignored.": {
			existing: []model.Task{{ID: "foo"}, {ID: "task-"}, {ID: "task-abc"}, {ID: "task-5x"}, {ID: "xtask-9"}},
			expID:    "task-001",
		},

		"Malformed IDs mixed with valid ones should be ignored.": {
			existing: []model.Task{{ID: "foo"}, {ID: "task-004"}},
			expID:    "task-005",
		},

		"IDs over three digits should keep growing.": {
			existing: []model.Task{{ID: "task-999"}},
			expID:    "task-1000",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expID, model.GenerateTaskID(test.existing))
		})
	}
}

func TestEngineerID(t *testing.T) {
	assert.Equal(t, "task-001-eng-1", model.EngineerID("task-001", 1))
	assert.NotEqual(t, model.EngineerID("task-001", 1), model.EngineerID("task-002", 1))
}

func TestSubtaskID(t *testing.T) {
	tests := map[string]struct {
		taskID   string
		existing []model.Subtask
		expID    string
	}{
		"First subtask.": {
			taskID: "task-001",
			expID:  "001-a",
		},

		"Following subtask.": {
			taskID:   "task-001",
			existing: []model.Subtask{{ID: "001-a"}, {ID: "001-b"}},
			expID:    "001-c",
		},

		"After z should wrap to two letters.": {
			taskID:   "task-002",
			existing: make([]model.Subtask, 26),
			expID:    "002-aa",
		},

		"Used IDs should be skipped.": {
			taskID:   "task-001",
			existing: []model.Subtask{{ID: "001-b"}},
			expID:    "001-c",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expID, model.SubtaskID(test.taskID, test.existing))
		})
	}
}
