package doctor

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/slok/opentown/internal/log"
	"github.com/slok/opentown/internal/model"
)

// GitRunner runs git commands on the project repository.
type GitRunner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// InitChecker tells if the town directory exists.
type InitChecker interface {
	Initialized(ctx context.Context) (bool, error)
}

// ServiceConfig is the configuration for the doctor service.
type ServiceConfig struct {
	Git         GitRunner
	InitChecker InitChecker
	// Editor is the resolved editor command.
	Editor   string
	LookPath func(file string) (string, error)
	Logger   log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Git == nil {
		return fmt.Errorf("git runner is required")
	}
	if c.InitChecker == nil {
		return fmt.Errorf("init checker is required")
	}
	if c.LookPath == nil {
		c.LookPath = exec.LookPath
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Doctor"})
	return nil
}

// Service runs the preflight checks.
type Service struct {
	git      GitRunner
	init     InitChecker
	editor   string
	lookPath func(file string) (string, error)
	logger   log.Logger
}

// NewService creates a new doctor service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		git:      cfg.Git,
		init:     cfg.InitChecker,
		editor:   cfg.Editor,
		lookPath: cfg.LookPath,
		logger:   cfg.Logger,
	}, nil
}

// Run runs all the checks. The checks never fail, problems are reported on the results.
func (s *Service) Run(ctx context.Context) []model.CheckResult {
	results := []model.CheckResult{
		s.checkBinary(model.CheckIDGitBinary, "git", model.CheckStatusError),
		s.checkBinary(model.CheckIDTmuxBinary, "tmux", model.CheckStatusWarning),
	}

	// Without git the repository can't be checked.
	if results[0].Status == model.CheckStatusOK {
		results = append(results, s.checkGitRepository(ctx))
	}

	results = append(results, s.checkInitialized(ctx))

	if s.editor != "" {
		results = append(results, s.checkEditor())
	}

	counts := model.CheckResults(results).Count()
	s.logger.Debugf("Checks: %d ok, %d warnings, %d errors", counts[model.CheckStatusOK], counts[model.CheckStatusWarning], counts[model.CheckStatusError])

	return results
}

func (s *Service) checkBinary(id, bin string, failStatus model.CheckStatus) model.CheckResult {
	path, err := s.lookPath(bin)
	if err != nil {
		return model.CheckResult{
			ID:      id,
			Message: fmt.Sprintf("%s not found in PATH", bin),
			Status:  failStatus,
		}
	}
	return model.CheckResult{
		ID:      id,
		Message: fmt.Sprintf("%s found at %s", bin, path),
		Status:  model.CheckStatusOK,
	}
}

func (s *Service) checkGitRepository(ctx context.Context) model.CheckResult {
	out, err := s.git.Run(ctx, "rev-parse", "--is-inside-work-tree")
	if err != nil || strings.TrimSpace(out) != "true" {
		return model.CheckResult{
			ID:      model.CheckIDGitRepository,
			Message: "Current directory is not a git repository",
			Status:  model.CheckStatusError,
		}
	}
	return model.CheckResult{
		ID:      model.CheckIDGitRepository,
		Message: "Current directory is a git repository",
		Status:  model.CheckStatusOK,
	}
}

func (s *Service) checkInitialized(ctx context.Context) model.CheckResult {
	ok, err := s.init.Initialized(ctx)
	switch {
	case err != nil:
		return model.CheckResult{
			ID:      model.CheckIDTownInitialized,
			Message: fmt.Sprintf("Could not check town directory: %v", err),
			Status:  model.CheckStatusError,
		}
	case !ok:
		return model.CheckResult{
			ID:      model.CheckIDTownInitialized,
			Message: "Town directory missing, run 'ot init'",
			Status:  model.CheckStatusWarning,
		}
	}
	return model.CheckResult{
		ID:      model.CheckIDTownInitialized,
		Message: "Town directory initialized",
		Status:  model.CheckStatusOK,
	}
}

func (s *Service) checkEditor() model.CheckResult {
	fields := strings.Fields(s.editor)
	if len(fields) == 0 {
		return model.CheckResult{ID: model.CheckIDEditor, Message: "No editor configured", Status: model.CheckStatusWarning}
	}
	return s.checkBinary(model.CheckIDEditor, fields[0], model.CheckStatusWarning)
}
