package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/slok/opentown/internal/conventions"
	"github.com/slok/opentown/internal/log"
	"github.com/slok/opentown/internal/model"
)

// RepositoryConfig is the configuration for the file repository.
type RepositoryConfig struct {
	// TownDir is the path of the town directory (e.g. /project/.town).
	TownDir string
	// FS is the filesystem, defaults to the OS filesystem.
	FS     afero.Fs
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.TownDir == "" {
		return fmt.Errorf("town dir is required")
	}
	if c.FS == nil {
		c.FS = afero.NewOsFs()
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.File"})
	return nil
}

// Repository is a file backed implementation of storage.Repository.
// Documents are JSON files replaced atomically on every save.
type Repository struct {
	townDir string
	fs      afero.Fs
	logger  log.Logger
}

// NewRepository creates a new file repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		townDir: cfg.TownDir,
		fs:      cfg.FS,
		logger:  cfg.Logger,
	}, nil
}

// Init creates the town directory layout.
func (r *Repository) Init(ctx context.Context) error {
	dirs := []string{
		r.townDir,
		filepath.Join(r.townDir, conventions.WorktreesDir),
	}
	for _, d := range dirs {
		if err := r.fs.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("could not create %s: %w", d, err)
		}
	}

	r.logger.Debugf("Town directory layout created at %s", r.townDir)
	return nil
}

// Initialized returns true if the town directory exists.
func (r *Repository) Initialized(ctx context.Context) (bool, error) {
	ok, err := afero.DirExists(r.fs, r.townDir)
	if err != nil {
		return false, fmt.Errorf("could not check town dir: %w", err)
	}
	return ok, nil
}

// GetTaskList loads the tasks document.
func (r *Repository) GetTaskList(ctx context.Context) (*model.TaskList, error) {
	var l model.TaskList
	if err := r.loadJSON(conventions.TasksFile, &l); err != nil {
		return nil, err
	}
	if l.Tasks == nil {
		l.Tasks = []model.Task{}
	}
	return &l, nil
}

// SaveTaskList saves the tasks document.
func (r *Repository) SaveTaskList(ctx context.Context, l model.TaskList) error {
	if l.Tasks == nil {
		l.Tasks = []model.Task{}
	}
	return r.saveJSON(conventions.TasksFile, l)
}

// GetState loads the pipeline state document.
func (r *Repository) GetState(ctx context.Context) (*model.PipelineState, error) {
	var s model.PipelineState
	if err := r.loadJSON(conventions.StateFile, &s); err != nil {
		return nil, err
	}
	if s.Engineers == nil {
		s.Engineers = []model.Engineer{}
	}
	return &s, nil
}

// SaveState saves the pipeline state document.
func (r *Repository) SaveState(ctx context.Context, s model.PipelineState) error {
	if s.Engineers == nil {
		s.Engineers = []model.Engineer{}
	}
	return r.saveJSON(conventions.StateFile, s)
}

// GetDescribe loads the describe document.
func (r *Repository) GetDescribe(ctx context.Context) (string, error) {
	data, err := r.read(conventions.DescribeFile)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SaveDescribe saves the describe document.
func (r *Repository) SaveDescribe(ctx context.Context, content string) error {
	return r.write(conventions.DescribeFile, []byte(content))
}

func (r *Repository) loadJSON(name string, v any) error {
	data, err := r.read(name)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("could not decode %s: %w", name, err)
	}
	return nil
}

func (r *Repository) saveJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode %s: %w", name, err)
	}
	return r.write(name, append(data, '\n'))
}

func (r *Repository) read(name string) ([]byte, error) {
	path := conventions.TownFilePath(r.townDir, name)
	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", name, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not read %s: %w", name, err)
	}
	return data, nil
}

// write replaces the file atomically writing first to a temporary file in the same
// directory and renaming it.
func (r *Repository) write(name string, data []byte) error {
	path := conventions.TownFilePath(r.townDir, name)

	tmp, err := afero.TempFile(r.fs, r.townDir, ".tmp-"+name+"-*")
	if err != nil {
		return fmt.Errorf("could not create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = r.fs.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("could not write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("could not sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not close temp file: %w", err)
	}
	if err := r.fs.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("could not set permissions: %w", err)
	}
	if err := r.fs.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("could not rename temp file: %w", err)
	}

	success = true
	r.logger.Debugf("Saved %s", name)
	return nil
}
