package printer

import (
	"github.com/slok/opentown/internal/app/status"
	"github.com/slok/opentown/internal/model"
)

// Printer knows how to print pipeline information in different formats.
type Printer interface {
	PrintStatus(st status.Result) error
	PrintEvents(events []model.Event) error
	PrintChecks(results []model.CheckResult) error
	// PrintPrompt prints the instructions of a role under a title banner.
	PrintPrompt(title, prompt string) error
	PrintMessage(msg string) error
}
