package spawn

import (
	"context"
	"fmt"
	"time"

	"github.com/slok/opentown/internal/conventions"
	"github.com/slok/opentown/internal/lock"
	"github.com/slok/opentown/internal/log"
	"github.com/slok/opentown/internal/model"
	"github.com/slok/opentown/internal/prompt"
	"github.com/slok/opentown/internal/session"
	"github.com/slok/opentown/internal/storage"
	"github.com/slok/opentown/internal/worktree"
)

// ServiceConfig is the configuration for the spawn service.
type ServiceConfig struct {
	Repository storage.PipelineRepository
	Events     storage.EventRepository
	Locker     lock.Locker
	Worktrees  worktree.Manager
	Sessions   session.Manager
	Config     model.Config
	TownDir    string
	TimeNow    func() time.Time
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Worktrees == nil {
		return fmt.Errorf("worktree manager is required")
	}
	if c.Sessions == nil {
		return fmt.Errorf("session manager is required")
	}
	if c.TownDir == "" {
		return fmt.Errorf("town dir is required")
	}
	if c.Events == nil {
		c.Events = storage.NoopEventRepository
	}
	if c.Locker == nil {
		c.Locker = lock.Noop
	}
	c.Config = model.NewDefaultConfig().Merge(c.Config)
	if c.TimeNow == nil {
		c.TimeNow = time.Now
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Spawn"})
	return nil
}

// Service spawns the engineers of the current task.
type Service struct {
	repo      storage.PipelineRepository
	events    storage.EventRepository
	locker    lock.Locker
	worktrees worktree.Manager
	sessions  session.Manager
	cfg       model.Config
	townDir   string
	timeNow   func() time.Time
	logger    log.Logger
}

// NewService creates a new spawn service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:      cfg.Repository,
		events:    cfg.Events,
		locker:    cfg.Locker,
		worktrees: cfg.Worktrees,
		sessions:  cfg.Sessions,
		cfg:       cfg.Config,
		townDir:   cfg.TownDir,
		timeNow:   cfg.TimeNow,
		logger:    cfg.Logger,
	}, nil
}

// MaxEngineers is the most engineers a single spawn can create.
const MaxEngineers = 64

// Request is the request to spawn engineers.
type Request struct {
	Count int
	// NoSession skips the terminal sessions creation.
	NoSession bool
	// StartAgent types the configured agent command on every new session.
	StartAgent bool
}

func (r Request) validate() error {
	if r.Count < 1 {
		return fmt.Errorf("engineer count must be at least 1, got %d", r.Count)
	}
	if r.Count > MaxEngineers {
		return fmt.Errorf("engineer count must be at most %d, got %d", MaxEngineers, r.Count)
	}
	return nil
}

// SpawnedEngineer is an engineer created on a spawn.
type SpawnedEngineer struct {
	Engineer     model.Engineer
	WorktreePath string
	// Subtask is nil when the engineer has no subtask assigned.
	Subtask *model.Subtask
	Prompt  string
	// SessionError is set when the terminal session could not be created.
	SessionError error
}

// Result is the result of spawning engineers.
type Result struct {
	TaskID    string
	Engineers []SpawnedEngineer
}

// Run creates one engineer per count with its worktree and terminal session, linking
// engineer i to subtask i, and moves the pipeline to implementation.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w: %w", err, model.ErrNotValid)
	}

	unlock, err := s.locker.Lock(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = unlock() }()

	tasks, state, err := storage.LoadPipeline(ctx, s.repo)
	if err != nil {
		return nil, err
	}

	if state.CurrentTask == nil {
		return nil, fmt.Errorf("no current task, run a task first: %w", model.ErrInvalidState)
	}
	if state.Phase != model.PhaseIdle && state.Phase != model.PhasePlanning {
		return nil, fmt.Errorf("engineers can't be spawned on %s phase: %w", state.Phase, model.ErrInvalidState)
	}

	task, err := tasks.Task(*state.CurrentTask)
	if err != nil {
		return nil, fmt.Errorf("current task: %w", err)
	}

	// Worktrees first, a failure leaves the documents untouched.
	spawned := make([]SpawnedEngineer, 0, req.Count)
	for i := 1; i <= req.Count; i++ {
		id := model.EngineerID(task.ID, i)
		path := conventions.WorktreePath(s.townDir, id)

		wt, err := s.worktrees.Create(ctx, path, id, s.cfg.BaseBranch)
		if err != nil {
			return nil, fmt.Errorf("could not create worktree for %s: %w", id, err)
		}
		s.logger.Debugf("Worktree %s ready on branch %s", wt.Path, wt.Branch)

		spawned = append(spawned, SpawnedEngineer{
			Engineer: model.Engineer{
				ID:          id,
				Status:      model.EngineerStatusWorking,
				Branch:      wt.Branch,
				TmuxSession: s.cfg.SessionName(id),
			},
			WorktreePath: wt.Path,
		})
	}

	for j := range task.Subtasks {
		st := &task.Subtasks[j]
		if j >= len(spawned) {
			st.Assignee = nil
			st.Branch = nil
			continue
		}

		e := &spawned[j].Engineer
		st.Assignee = model.StrPtr(e.ID)
		st.Branch = model.StrPtr(e.Branch)
		e.SubtaskID = model.StrPtr(st.ID)
		stc := *st
		spawned[j].Subtask = &stc
	}

	engineers := make([]model.Engineer, 0, len(spawned))
	for _, se := range spawned {
		engineers = append(engineers, se.Engineer)
	}

	state.Phase = model.PhaseImplementation
	state.Engineers = engineers
	state.QAStatus = model.QAStatusWaiting
	if state.ActiveSince == nil {
		now := s.timeNow().UTC()
		state.ActiveSince = &now
	}
	task.Status = model.TaskStatusInProgress
	task.Phase = model.PhaseImplementation
	tasks.CurrentTask = model.StrPtr(task.ID)

	if err := storage.SavePipeline(ctx, s.repo, *tasks, *state); err != nil {
		return nil, err
	}
	storage.RecordEvent(ctx, s.events, s.logger, model.Event{
		Kind:    model.EventKindEngineersSpawned,
		TaskID:  task.ID,
		Message: fmt.Sprintf("%d engineers", len(engineers)),
	})
	s.logger.Infof("Spawned %d engineers for %s", len(engineers), task.ID)

	for i := range spawned {
		se := &spawned[i]

		if !req.NoSession {
			se.SessionError = s.startSession(ctx, se, req.StartAgent)
		}

		data := prompt.EngineerData{
			EngineerID:   se.Engineer.ID,
			Branch:       se.Engineer.Branch,
			WorktreePath: se.WorktreePath,
		}
		if se.Subtask != nil {
			data.SubtaskID = se.Subtask.ID
			data.SubtaskDesc = se.Subtask.Desc
		}
		p, err := prompt.Engineer(data)
		if err != nil {
			return nil, err
		}
		se.Prompt = p
	}

	return &Result{TaskID: task.ID, Engineers: spawned}, nil
}

func (s *Service) startSession(ctx context.Context, se *SpawnedEngineer, startAgent bool) error {
	name := se.Engineer.TmuxSession
	if err := s.sessions.Create(ctx, name, se.WorktreePath); err != nil {
		s.logger.Warningf("Could not create session %s: %s", name, err)
		return err
	}

	if startAgent && s.cfg.AgentCommand != "" {
		if err := s.sessions.SendKeys(ctx, name, s.cfg.AgentCommand); err != nil {
			s.logger.Warningf("Could not start agent on session %s: %s", name, err)
			return err
		}
	}

	return nil
}
