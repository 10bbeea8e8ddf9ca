package session

import "context"

// Manager manages the engineer terminal sessions.
type Manager interface {
	// Create creates a detached session on dir. An existing session with the same name is kept.
	Create(ctx context.Context, name, dir string) error
	Exists(ctx context.Context, name string) (bool, error)
	// Attach attaches the current terminal to the session, blocking until detached.
	Attach(ctx context.Context, name string) error
	Kill(ctx context.Context, name string) error
	// List returns the session names that start with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
	// SendKeys types keys followed by enter on the session.
	SendKeys(ctx context.Context, name, keys string) error
}
