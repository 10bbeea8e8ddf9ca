package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/slok/opentown/internal/app/status"
	"github.com/slok/opentown/internal/model"
)

// JSONPrinter prints pipeline information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

type statusOutput struct {
	Phase       string           `json:"phase"`
	QAStatus    string           `json:"qa_status"`
	ActiveSince *time.Time       `json:"active_since"`
	CurrentTask *taskOutput      `json:"current_task"`
	Engineers   []engineerOutput `json:"engineers"`
	Tasks       map[string]int   `json:"tasks"`
}

type taskOutput struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

type engineerOutput struct {
	ID           string  `json:"id"`
	Status       string  `json:"status"`
	Branch       string  `json:"branch"`
	TmuxSession  string  `json:"tmux_session"`
	SubtaskID    *string `json:"subtask_id"`
	SessionAlive *bool   `json:"session_alive,omitempty"`
}

type eventOutput struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	TaskID     string    `json:"task_id,omitempty"`
	EngineerID string    `json:"engineer_id,omitempty"`
	Message    string    `json:"message,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type checkOutput struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type promptOutput struct {
	Title  string `json:"title"`
	Prompt string `json:"prompt"`
}

type messageOutput struct {
	Message string `json:"message"`
}

// PrintStatus prints the pipeline status in JSON format.
func (j *JSONPrinter) PrintStatus(st status.Result) error {
	output := statusOutput{
		Phase:     string(st.Phase),
		QAStatus:  string(st.QAStatus),
		Engineers: make([]engineerOutput, 0, len(st.Engineers)),
		Tasks:     map[string]int{},
	}

	if st.ActiveSince != nil {
		utcTime := st.ActiveSince.UTC()
		output.ActiveSince = &utcTime
	}

	if st.CurrentTask != nil {
		output.CurrentTask = &taskOutput{
			ID:     st.CurrentTask.ID,
			Title:  st.CurrentTask.Title,
			Status: string(st.CurrentTask.Status),
		}
	}

	for _, e := range st.Engineers {
		output.Engineers = append(output.Engineers, engineerOutput{
			ID:           e.ID,
			Status:       string(e.Status),
			Branch:       e.Branch,
			TmuxSession:  e.TmuxSession,
			SubtaskID:    e.SubtaskID,
			SessionAlive: e.SessionAlive,
		})
	}

	for s, n := range st.TaskCounts {
		output.Tasks[string(s)] = n
	}

	return j.encode(output)
}

// PrintEvents prints the journal events in JSON format.
func (j *JSONPrinter) PrintEvents(events []model.Event) error {
	items := make([]eventOutput, len(events))
	for i, e := range events {
		items[i] = eventOutput{
			ID:         e.ID,
			Kind:       string(e.Kind),
			TaskID:     e.TaskID,
			EngineerID: e.EngineerID,
			Message:    e.Message,
			CreatedAt:  e.CreatedAt.UTC(),
		}
	}

	return j.encode(items)
}

// PrintChecks prints the preflight check results in JSON format.
func (j *JSONPrinter) PrintChecks(results []model.CheckResult) error {
	items := make([]checkOutput, len(results))
	for i, r := range results {
		items[i] = checkOutput{ID: r.ID, Status: string(r.Status), Message: r.Message}
	}

	return j.encode(items)
}

// PrintPrompt prints a prompt in JSON format.
func (j *JSONPrinter) PrintPrompt(title, prompt string) error {
	return j.encode(promptOutput{Title: title, Prompt: prompt})
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var (
	_ Printer = &JSONPrinter{}
	_ Printer = &TablePrinter{}
)
