package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var taskIDRegexp = regexp.MustCompile(`^task-(\d+)$`)

// GenerateTaskID returns the next task ID (task-NNN) after the highest well formed
// task ID in existing. Malformed IDs are ignored.
func GenerateTaskID(existing []Task) string {
	maxID := 0
	for _, t := range existing {
		m := taskIDRegexp.FindStringSubmatch(t.ID)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > maxID {
			maxID = n
		}
	}

	return fmt.Sprintf("task-%03d", maxID+1)
}

// EngineerID returns the task scoped ID of the nth (1 based) engineer of a task.
func EngineerID(taskID string, n int) string {
	return fmt.Sprintf("%s-eng-%d", taskID, n)
}

// SubtaskID returns the next subtask ID for a task: "001-a", "001-b"... "001-z", "001-aa".
func SubtaskID(taskID string, existing []Subtask) string {
	prefix := strings.TrimPrefix(taskID, "task-")

	used := map[string]bool{}
	for _, st := range existing {
		used[st.ID] = true
	}

	for n := len(existing); ; n++ {
		id := prefix + "-" + letterSuffix(n)
		if !used[id] {
			return id
		}
	}
}

// letterSuffix converts 0->a, 25->z, 26->aa...
func letterSuffix(n int) string {
	s := ""
	for {
		s = string(rune('a'+n%26)) + s
		n = n/26 - 1
		if n < 0 {
			return s
		}
	}
}
