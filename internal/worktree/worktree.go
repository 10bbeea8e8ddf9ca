package worktree

import "context"

// Worktree is a git working tree checked out on its own branch.
type Worktree struct {
	Path   string
	Branch string
}

// Manager manages the engineer working trees.
type Manager interface {
	// Create creates a worktree at path on a new branch from base. If the branch exists
	// it is checked out, and if path is already a registered worktree it is reused.
	Create(ctx context.Context, path, branch, base string) (*Worktree, error)
	// Remove removes the worktree, discarding local changes.
	Remove(ctx context.Context, path string) error
	// List returns the registered worktrees.
	List(ctx context.Context) ([]Worktree, error)
}
