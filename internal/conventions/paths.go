package conventions

import "path/filepath"

const (
	// TownDir is the project-local state directory name.
	TownDir = ".town"
	// WorktreesDir is the subdirectory for engineer worktrees.
	WorktreesDir = "worktrees"

	// DescribeFile is the free text project brief.
	DescribeFile = "describe.md"
	// TasksFile is the tasks document.
	TasksFile = "tasks.json"
	// StateFile is the pipeline state document.
	StateFile = "state.json"
	// ConfigFile is the project configuration.
	ConfigFile = "config.yaml"
	// HistoryDBFile is the SQLite event journal.
	HistoryDBFile = "history.db"
	// LockFile is the single writer lock file.
	LockFile = "town.lock"

	// UserConfigDir is the user level configuration directory name (relative to home).
	UserConfigDir = ".opentown"
)

// TownFilePath returns the full path to a file inside the town directory.
func TownFilePath(townDir, filename string) string {
	return filepath.Join(townDir, filename)
}

// WorktreePath returns the worktree directory of an engineer.
func WorktreePath(townDir, engineerID string) string {
	return filepath.Join(townDir, WorktreesDir, engineerID)
}

// UserConfigPath returns the user level configuration file path.
func UserConfigPath(homeDir string) string {
	return filepath.Join(homeDir, UserConfigDir, ConfigFile)
}
