package ot_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	intot "github.com/slok/opentown/test/integration/ot"
)

// statusOutput matches the JSON output of `ot status --format json`.
type statusOutput struct {
	Phase       string `json:"phase"`
	QAStatus    string `json:"qa_status"`
	CurrentTask *struct {
		ID     string `json:"id"`
		Title  string `json:"title"`
		Status string `json:"status"`
	} `json:"current_task"`
	Engineers []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Branch string `json:"branch"`
	} `json:"engineers"`
	Tasks map[string]int `json:"tasks"`
}

// eventOutput matches the JSON output of `ot history --format json`.
type eventOutput struct {
	Kind   string `json:"kind"`
	TaskID string `json:"task_id"`
}

const describeDoc = `# Shop

## Next
- [ ] Add login page
- [ ] Add search

## Done
`

func getStatus(ctx context.Context, t *testing.T, town intot.Town) statusOutput {
	t.Helper()
	stdout, stderr, err := town.Run(ctx, "status", "--format", "json")
	require.NoError(t, err, "stderr: %s", stderr)

	var st statusOutput
	require.NoError(t, json.Unmarshal(stdout, &st))
	return st
}

func TestPipelineLifecycle(t *testing.T) {
	config := intot.NewConfig(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	town := intot.NewTown(t, config)

	// Init.
	stdout, stderr, err := town.Run(ctx, "init", "--project-name", "Shop")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, string(stdout), "Town initialized")

	st := getStatus(ctx, t, town)
	assert.Equal(t, "idle", st.Phase)
	assert.Nil(t, st.CurrentTask)

	// Plan.
	town.WriteDescribe(t, describeDoc)
	stdout, stderr, err = town.Run(ctx, "ceo")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, string(stdout), "Add login page")
	assert.Contains(t, string(stdout), "Add search")

	// Start the first task.
	stdout, stderr, err = town.Run(ctx, "run", "--no-monitor")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, string(stdout), "Started")

	st = getStatus(ctx, t, town)
	require.NotNil(t, st.CurrentTask)
	taskID := st.CurrentTask.ID
	assert.Equal(t, "Add login page", st.CurrentTask.Title)
	assert.Equal(t, "planning", st.Phase)

	// Break down and spawn.
	for _, desc := range []string{"Build the form", "Wire the auth handler"} {
		_, stderr, err = town.Run(ctx, "subtask", "add", taskID, desc)
		require.NoError(t, err, "stderr: %s", stderr)
	}

	_, stderr, err = town.Run(ctx, "spawn", "2")
	require.NoError(t, err, "stderr: %s", stderr)

	st = getStatus(ctx, t, town)
	assert.Equal(t, "implementation", st.Phase)
	require.Len(t, st.Engineers, 2)

	// The engineers work and finish.
	for _, eng := range st.Engineers {
		stdout, stderr, err = town.Run(ctx, "engineer", eng.ID)
		require.NoError(t, err, "stderr: %s", stderr)
		assert.Contains(t, string(stdout), eng.Branch)

		_, stderr, err = town.Run(ctx, "done", eng.ID)
		require.NoError(t, err, "stderr: %s", stderr)
	}

	// QA is refused until the monitor moves the pipeline.
	_, _, err = town.Run(ctx, "qa")
	assert.Error(t, err)

	stdout, stderr, err = town.Run(ctx, "run", "--interval", "100ms")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, string(stdout), "QA")

	st = getStatus(ctx, t, town)
	assert.Equal(t, "qa", st.Phase)

	stdout, stderr, err = town.Run(ctx, "qa")
	require.NoError(t, err, "stderr: %s", stderr)
	for _, eng := range st.Engineers {
		assert.Contains(t, string(stdout), eng.Branch)
	}

	// Complete.
	stdout, stderr, err = town.Run(ctx, "complete")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, string(stdout), taskID)

	st = getStatus(ctx, t, town)
	assert.Equal(t, "idle", st.Phase)
	assert.Nil(t, st.CurrentTask)
	assert.Empty(t, st.Engineers)
	assert.Equal(t, 1, st.Tasks["done"])
	assert.Equal(t, 1, st.Tasks["pending"])

	assert.Contains(t, town.ReadDescribe(t), "- [x] Add login page")

	// History.
	stdout, stderr, err = town.Run(ctx, "history", "--task", taskID, "--format", "json")
	require.NoError(t, err, "stderr: %s", stderr)

	var events []eventOutput
	require.NoError(t, json.Unmarshal(stdout, &events))
	kinds := map[string]bool{}
	for _, e := range events {
		kinds[e.Kind] = true
		assert.Equal(t, taskID, e.TaskID)
	}
	for _, k := range []string{"task_planned", "task_started", "engineers_spawned", "engineer_done", "phase_qa", "task_completed"} {
		assert.True(t, kinds[k], "missing %s event", k)
	}
}

func TestCommandsNotInitialized(t *testing.T) {
	config := intot.NewConfig(t)

	tests := map[string]struct {
		args []string
	}{
		"Status requires an initialized town.":  {args: []string{"status"}},
		"CEO requires an initialized town.":     {args: []string{"ceo"}},
		"History requires an initialized town.": {args: []string{"history"}},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			town := intot.NewTown(t, config)
			_, stderr, err := town.Run(ctx, test.args...)
			require.Error(t, err)
			assert.Contains(t, string(stderr), "ot init")
		})
	}
}

func TestNothingToDo(t *testing.T) {
	config := intot.NewConfig(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	town := intot.NewTown(t, config)
	_, stderr, err := town.Run(ctx, "init")
	require.NoError(t, err, "stderr: %s", stderr)

	town.WriteDescribe(t, "# Shop\n\n## Next\n\n## Done\n- [x] Bootstrap\n")
	stdout, stderr, err := town.Run(ctx, "ceo")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, string(stdout), "Nothing to do")

	stdout, stderr, err = town.Run(ctx, "manager")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, string(stdout), "Nothing to do")
}
