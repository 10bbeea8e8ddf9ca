package model

// CheckStatus is the outcome of an environment check.
type CheckStatus string

const (
	CheckStatusOK      CheckStatus = "ok"
	CheckStatusWarning CheckStatus = "warning"
	// CheckStatusError means the town can't work until it's fixed.
	CheckStatusError CheckStatus = "error"
)

// Environment check IDs.
const (
	CheckIDGitBinary       = "git_binary"
	CheckIDTmuxBinary      = "tmux_binary"
	CheckIDGitRepository   = "git_repository"
	CheckIDTownInitialized = "town_initialized"
	CheckIDEditor          = "editor"
)

// CheckResult is the result of a single environment check.
type CheckResult struct {
	ID      string
	Message string
	Status  CheckStatus
}

// CheckResults is the report of a doctor run.
type CheckResults []CheckResult

// Failed returns true when a check has an error status, warnings don't block the town.
func (c CheckResults) Failed() bool {
	return c.Count()[CheckStatusError] > 0
}

// Count returns how many checks ended on each status.
func (c CheckResults) Count() map[CheckStatus]int {
	counts := map[CheckStatus]int{}
	for _, r := range c {
		counts[r.Status]++
	}
	return counts
}
