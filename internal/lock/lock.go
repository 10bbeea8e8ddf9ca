package lock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/slok/opentown/internal/log"
)

// Unlock releases an acquired lock.
type Unlock func() error

// Locker serializes the load-modify-save cycles over the project documents.
type Locker interface {
	// Lock blocks until the lock is acquired or the context is done.
	Lock(ctx context.Context) (Unlock, error)
}

// FileLockerConfig is the configuration of the file locker.
type FileLockerConfig struct {
	// Path of the lock file.
	Path string
	// PollInterval is the wait between acquire attempts.
	PollInterval time.Duration
	Logger       log.Logger
}

func (c *FileLockerConfig) defaults() error {
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 50 * time.Millisecond
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "lock.File"})
	return nil
}

// FileLocker is a cross process lock based on flock(2) over a lock file.
type FileLocker struct {
	path         string
	pollInterval time.Duration
	logger       log.Logger
}

// NewFileLocker returns a new file locker.
func NewFileLocker(cfg FileLockerConfig) (*FileLocker, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &FileLocker{
		path:         cfg.Path,
		pollInterval: cfg.PollInterval,
		logger:       cfg.Logger,
	}, nil
}

func (l *FileLocker) Lock(ctx context.Context) (Unlock, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return nil, fmt.Errorf("could not create lock dir: %w", err)
	}

	logged := false
	for {
		f, ok, err := l.tryLock()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() error { return l.unlock(f) }, nil
		}

		if !logged {
			l.logger.Infof("Waiting for another ot process to release %s", l.path)
			logged = true
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("could not acquire lock: %w", ctx.Err())
		case <-time.After(l.pollInterval):
		}
	}
}

func (l *FileLocker) tryLock() (*os.File, bool, error) {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, false, fmt.Errorf("open lock file: %w", err)
	}

	err = syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if err != nil {
		_ = f.Close()
		if err == syscall.EWOULDBLOCK {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("flock: %w", err)
	}

	return f, true, nil
}

func (l *FileLocker) unlock(f *os.File) error {
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_UN); err != nil {
		_ = f.Close()
		return fmt.Errorf("funlock: %w", err)
	}
	return f.Close()
}

// MemoryLocker is an in process lock.
type MemoryLocker struct {
	sem chan struct{}
}

// NewMemoryLocker returns a new memory locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{sem: make(chan struct{}, 1)}
}

func (l *MemoryLocker) Lock(ctx context.Context) (Unlock, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("could not acquire lock: %w", ctx.Err())
	}

	released := false
	return func() error {
		if !released {
			released = true
			<-l.sem
		}
		return nil
	}, nil
}

// Noop is a locker that never blocks.
const Noop = noop(0)

type noop int

func (noop) Lock(context.Context) (Unlock, error) { return func() error { return nil }, nil }

var (
	_ Locker = &FileLocker{}
	_ Locker = &MemoryLocker{}
	_ Locker = Noop
)
