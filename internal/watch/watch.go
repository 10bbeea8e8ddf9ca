package watch

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/slok/opentown/internal/log"
)

// Watcher notifies changes on watched documents.
type Watcher interface {
	// Changes receives a value after one or more changes. Changes are coalesced.
	Changes() <-chan struct{}
}

// FileWatcherConfig is the configuration of the file watcher.
type FileWatcherConfig struct {
	// Paths of the files to watch. Their directories are watched so atomic replaces
	// (write temp + rename) are detected.
	Paths  []string
	Logger log.Logger
}

func (c *FileWatcherConfig) defaults() error {
	if len(c.Paths) == 0 {
		return fmt.Errorf("at least one path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "watch.File"})
	return nil
}

// FileWatcher is a Watcher based on fsnotify.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	files   map[string]bool
	changes chan struct{}
	logger  log.Logger
}

// NewFileWatcher starts watching the configured files. The watcher runs until the context
// is done.
func NewFileWatcher(ctx context.Context, cfg FileWatcherConfig) (*FileWatcher, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create watcher: %w", err)
	}

	files := map[string]bool{}
	dirs := map[string]bool{}
	for _, p := range cfg.Paths {
		p = filepath.Clean(p)
		files[p] = true
		dirs[filepath.Dir(p)] = true
	}
	for d := range dirs {
		if err := w.Add(d); err != nil {
			w.Close()
			return nil, fmt.Errorf("could not watch %s: %w", d, err)
		}
	}

	fw := &FileWatcher{
		watcher: w,
		files:   files,
		changes: make(chan struct{}, 1),
		logger:  cfg.Logger,
	}
	go fw.run(ctx)

	return fw, nil
}

func (f *FileWatcher) Changes() <-chan struct{} { return f.changes }

func (f *FileWatcher) run(ctx context.Context) {
	defer f.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if !f.files[filepath.Clean(ev.Name)] {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}

			f.logger.Debugf("Change detected on %s", ev.Name)
			select {
			case f.changes <- struct{}{}:
			default:
			}
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			f.logger.Warningf("Watcher error: %s", err)
		}
	}
}

// Noop is a watcher that never notifies.
var Noop Watcher = noop{}

type noop struct{}

func (noop) Changes() <-chan struct{} { return nil }
