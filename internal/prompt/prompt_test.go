package prompt_test

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/slok/opentown/internal/model"
	"github.com/slok/opentown/internal/prompt"
)

func TestPrompts(t *testing.T) {
	qaData := prompt.QAData{
		ProjectName: "Town",
		Branches:    []string{"task-001-eng-1", "task-001-eng-2"},
		BaseBranch:  "main",
		TestCommand: "go test ./...",
	}

	tests := map[string]struct {
		render func() (string, error)
	}{
		"ceo": {
			render: func() (string, error) {
				return prompt.CEO(prompt.CEOData{
					ProjectName: "Town",
					Tasks: []model.Task{
						{ID: "task-001", Title: "Add login"},
						{ID: "task-002", Title: "Fix bug"},
					},
				})
			},
		},

		"manager": {
			render: func() (string, error) {
				return prompt.Manager(prompt.ManagerData{
					ProjectName: "Town",
					Task: model.Task{
						ID:    "task-001",
						Title: "Add login",
						Subtasks: []model.Subtask{
							{ID: "001-a", Desc: "API endpoint"},
							{ID: "001-b", Desc: "Login form"},
						},
					},
				})
			},
		},

		"engineer_with_subtask": {
			render: func() (string, error) {
				return prompt.Engineer(prompt.EngineerData{
					EngineerID:   "task-001-eng-1",
					SubtaskID:    "001-a",
					SubtaskDesc:  "API endpoint",
					Branch:       "task-001-eng-1",
					WorktreePath: "/repo/.town/worktrees/task-001-eng-1",
				})
			},
		},

		"engineer_without_subtask": {
			render: func() (string, error) {
				return prompt.Engineer(prompt.EngineerData{
					EngineerID:   "task-001-eng-3",
					Branch:       "task-001-eng-3",
					WorktreePath: "/repo/.town/worktrees/task-001-eng-3",
				})
			},
		},

		"qa": {
			render: func() (string, error) { return prompt.QA(qaData) },
		},

		"qa_steps": {
			render: func() (string, error) { return prompt.QASteps(qaData) },
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := test.render()
			require.NoError(t, err)

			g := goldie.New(t,
				goldie.WithFixtureDir("testdata/golden"),
				goldie.WithNameSuffix(".golden"),
			)
			g.Assert(t, name, []byte(got))
		})
	}
}
