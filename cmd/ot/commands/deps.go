package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"k8s.io/client-go/util/homedir"

	"github.com/slok/opentown/internal/conventions"
	"github.com/slok/opentown/internal/lock"
	"github.com/slok/opentown/internal/model"
	"github.com/slok/opentown/internal/printer"
	"github.com/slok/opentown/internal/session"
	sessionfake "github.com/slok/opentown/internal/session/fake"
	"github.com/slok/opentown/internal/session/tmux"
	"github.com/slok/opentown/internal/storage"
	"github.com/slok/opentown/internal/storage/file"
	storageio "github.com/slok/opentown/internal/storage/io"
	"github.com/slok/opentown/internal/storage/sqlite"
	"github.com/slok/opentown/internal/worktree"
	worktreefake "github.com/slok/opentown/internal/worktree/fake"
	"github.com/slok/opentown/internal/worktree/git"
)

// town has the dependencies shared by the pipeline commands.
type town struct {
	Dir        string
	ProjectDir string
	Config     model.Config
	Repository *file.Repository
	Configs    *storageio.ConfigYAMLRepository
	Events     storage.EventRepository
	Locker     lock.Locker
	closers    []func() error
}

// Close releases the town resources.
func (t *town) Close() {
	for _, c := range t.closers {
		_ = c()
	}
}

// ConfigPath returns the project configuration file path.
func (t *town) ConfigPath() string {
	return conventions.TownFilePath(t.Dir, conventions.ConfigFile)
}

// openTown loads the project town. The journal is only opened on initialized towns so
// commands never create the town directory as a side effect.
func (r *RootCommand) openTown(ctx context.Context) (*town, error) {
	dir, err := filepath.Abs(r.TownDir)
	if err != nil {
		return nil, fmt.Errorf("invalid town dir: %w", err)
	}

	fs := afero.NewOsFs()
	repo, err := file.NewRepository(file.RepositoryConfig{TownDir: dir, FS: fs, Logger: r.Logger})
	if err != nil {
		return nil, fmt.Errorf("could not create repository: %w", err)
	}

	configs := storageio.NewConfigYAMLRepository(fs)
	cfg, err := configs.LoadConfig(ctx, userConfigPath(), conventions.TownFilePath(dir, conventions.ConfigFile))
	if err != nil {
		return nil, fmt.Errorf("could not load configuration: %w", err)
	}

	t := &town{
		Dir:        dir,
		ProjectDir: filepath.Dir(dir),
		Config:     cfg,
		Repository: repo,
		Configs:    configs,
		Events:     storage.NoopEventRepository,
		Locker:     lock.Noop,
	}

	initialized, err := repo.Initialized(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not check town dir: %w", err)
	}
	if !initialized {
		return t, nil
	}

	locker, err := lock.NewFileLocker(lock.FileLockerConfig{
		Path:   conventions.TownFilePath(dir, conventions.LockFile),
		Logger: r.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create locker: %w", err)
	}
	t.Locker = locker

	if err := t.openJournal(ctx, r); err != nil {
		return nil, err
	}

	return t, nil
}

func (t *town) openJournal(ctx context.Context, r *RootCommand) error {
	journal, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: conventions.TownFilePath(t.Dir, conventions.HistoryDBFile),
		Logger: r.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not open journal: %w", err)
	}
	t.Events = journal
	t.closers = append(t.closers, journal.Close)
	return nil
}

func userConfigPath() string {
	home := homedir.HomeDir()
	if home == "" {
		return ""
	}
	return conventions.UserConfigPath(home)
}

func (r *RootCommand) newWorktreeManager(projectDir string) (worktree.Manager, error) {
	if r.Adapters == AdaptersFake {
		return worktreefake.NewManager(worktreefake.ManagerConfig{Logger: r.Logger})
	}

	return git.NewManager(git.ManagerConfig{
		RepoDir: projectDir,
		Logger:  r.Logger,
	})
}

func (r *RootCommand) newSessionManager() (session.Manager, error) {
	if r.Adapters == AdaptersFake {
		return sessionfake.NewManager(sessionfake.ManagerConfig{Logger: r.Logger})
	}

	return tmux.NewManager(tmux.ManagerConfig{
		Runner: &tmux.ExecRunner{Stdin: r.Stdin, Stdout: r.Stdout, Stderr: r.Stderr},
		Logger: r.Logger,
	})
}

func (r *RootCommand) newPrinter(format string) printer.Printer {
	if format == formatJSON {
		return printer.NewJSONPrinter(r.Stdout)
	}
	return printer.NewTablePrinter(r.Stdout, r.NoColor)
}

const (
	formatTable = "table"
	formatJSON  = "json"
)

// nothingToDo prints the reason of a no-op and hides the error, a no-op is not a failure.
func (r *RootCommand) nothingToDo(err error) error {
	if !errors.Is(err, model.ErrNothingToDo) {
		return err
	}
	fmt.Fprintf(r.Stdout, "Nothing to do: %s\n", err)
	return nil
}
