package printer

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/slok/opentown/internal/app/status"
	"github.com/slok/opentown/internal/model"
)

const bannerWidth = 60

// TablePrinter prints pipeline information in a human readable format.
type TablePrinter struct {
	writer io.Writer
	title  lipgloss.Style
	rule   lipgloss.Style
}

// NewTablePrinter creates a new table printer. Styles are rendered for the color
// capabilities of w, so a non terminal writer gets plain text.
func NewTablePrinter(w io.Writer, noColor bool) *TablePrinter {
	r := lipgloss.NewRenderer(w)
	t := &TablePrinter{
		writer: w,
		title:  r.NewStyle(),
		rule:   r.NewStyle(),
	}
	if !noColor {
		t.title = t.title.Bold(true).Foreground(lipgloss.Color("12"))
		t.rule = t.rule.Foreground(lipgloss.Color("8"))
	}
	return t
}

// PrintStatus prints the pipeline status.
func (t *TablePrinter) PrintStatus(st status.Result) error {
	fmt.Fprintf(t.writer, "Phase:         %s\n", st.Phase)

	task := "none"
	if st.CurrentTask != nil {
		task = st.CurrentTask.ID
		if st.CurrentTask.Title != "" {
			task += " - " + st.CurrentTask.Title
		}
	}
	fmt.Fprintf(t.writer, "Current task:  %s\n", task)

	if st.ActiveSince != nil {
		fmt.Fprintf(t.writer, "Active since:  %s (%s ago)\n", FormatTimestamp(*st.ActiveSince), Elapsed(*st.ActiveSince, time.Now()))
	}
	fmt.Fprintf(t.writer, "QA:            %s\n", st.QAStatus)
	fmt.Fprintf(t.writer, "Tasks:         %d pending, %d in progress, %d done\n",
		st.TaskCounts[model.TaskStatusPending],
		st.TaskCounts[model.TaskStatusInProgress],
		st.TaskCounts[model.TaskStatusDone],
	)

	if len(st.Engineers) == 0 {
		return nil
	}

	fmt.Fprintln(t.writer)
	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "ENGINEER\tSTATUS\tBRANCH\tSUBTASK\tSESSION")
	for _, e := range st.Engineers {
		subtask := "-"
		if e.SubtaskID != nil {
			subtask = *e.SubtaskID
		}
		session := e.TmuxSession
		if e.SessionAlive != nil && !*e.SessionAlive {
			session += " (gone)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.Status, e.Branch, subtask, session)
	}

	return nil
}

// PrintEvents prints the journal events in a table format.
func (t *TablePrinter) PrintEvents(events []model.Event) error {
	if len(events) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "TIME\tKIND\tTASK\tENGINEER\tMESSAGE")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			FormatTimestamp(e.CreatedAt),
			e.Kind,
			orDash(e.TaskID),
			orDash(e.EngineerID),
			e.Message,
		)
	}

	return nil
}

// PrintChecks prints the preflight check results with a summary.
func (t *TablePrinter) PrintChecks(results []model.CheckResult) error {
	for _, r := range results {
		fmt.Fprintf(t.writer, "  %s %-18s %s\n", statusIcon(r.Status), r.ID, r.Message)
	}

	counts := model.CheckResults(results).Count()
	warnings, errors := counts[model.CheckStatusWarning], counts[model.CheckStatusError]
	fmt.Fprintln(t.writer)
	if errors == 0 && warnings == 0 {
		fmt.Fprintln(t.writer, "All checks passed!")
		return nil
	}

	var summary []string
	if errors > 0 {
		summary = append(summary, fmt.Sprintf("%d error(s)", errors))
	}
	if warnings > 0 {
		summary = append(summary, fmt.Sprintf("%d warning(s)", warnings))
	}
	fmt.Fprintln(t.writer, strings.Join(summary, ", "))

	return nil
}

// PrintPrompt prints the prompt between banner rules.
func (t *TablePrinter) PrintPrompt(title, prompt string) error {
	rule := t.rule.Render(strings.Repeat("=", bannerWidth))
	fmt.Fprintln(t.writer, rule)
	fmt.Fprintln(t.writer, t.title.Render(title))
	fmt.Fprintln(t.writer, rule)
	fmt.Fprintln(t.writer, strings.TrimRight(prompt, "\n"))
	fmt.Fprintln(t.writer, rule)
	return nil
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}

func statusIcon(status model.CheckStatus) string {
	switch status {
	case model.CheckStatusOK:
		return "OK"
	case model.CheckStatusWarning:
		return "!!"
	case model.CheckStatusError:
		return "XX"
	default:
		return "??"
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
