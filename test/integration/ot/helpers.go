package ot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/slok/opentown/test/integration/testutils"
)

// Config holds integration test configuration loaded from environment variables.
type Config struct {
	Binary string
}

func (c *Config) defaults() error {
	if c.Binary == "" {
		c.Binary = "ot"
	}

	// If relative, the caller should pass an absolute path via the env var,
	// because go test changes the CWD to the test package directory.
	if !filepath.IsAbs(c.Binary) {
		return fmt.Errorf("OT_INTEGRATION_BINARY must be an absolute path, got %q", c.Binary)
	}
	if _, err := os.Stat(c.Binary); err != nil {
		return fmt.Errorf("ot binary not found at %q: %w", c.Binary, err)
	}

	return nil
}

// NewConfig loads integration test configuration from environment variables.
// If the config is invalid or the activation env var is not set, the test is skipped.
func NewConfig(t *testing.T) Config {
	t.Helper()

	const (
		envActivation = "OT_INTEGRATION"
		envBinary     = "OT_INTEGRATION_BINARY"
	)

	if os.Getenv(envActivation) != "true" {
		t.Skipf("Skipping integration test: %s is not set to 'true'", envActivation)
	}

	c := Config{Binary: os.Getenv(envBinary)}
	if err := c.defaults(); err != nil {
		t.Skipf("Skipping due to invalid config: %s", err)
	}

	return c
}

// Town is a project town used by a test, the commands run with in-memory worktree and
// session adapters so git and tmux are not required.
type Town struct {
	Config Config
	Dir    string
}

// NewTown returns a town on a temporary directory.
func NewTown(t *testing.T, config Config) Town {
	t.Helper()
	return Town{Config: config, Dir: filepath.Join(t.TempDir(), ".town")}
}

// Run executes an ot command on the town.
func (tw Town) Run(ctx context.Context, args ...string) (stdout, stderr []byte, err error) {
	env := []string{
		"OT_TOWN_DIR=" + tw.Dir,
		"OT_ADAPTERS=fake",
		"OT_NO_COLOR=true",
		"EDITOR=true",
		"VISUAL=",
	}
	return testutils.RunOTArgs(ctx, env, tw.Config.Binary, args, true)
}

// WriteDescribe replaces the describe document of the town.
func (tw Town) WriteDescribe(t *testing.T, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(tw.Dir, "describe.md"), []byte(content), 0o644); err != nil {
		t.Fatalf("could not write describe document: %s", err)
	}
}

// ReadDescribe returns the describe document of the town.
func (tw Town) ReadDescribe(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(tw.Dir, "describe.md"))
	if err != nil {
		t.Fatalf("could not read describe document: %s", err)
	}
	return string(data)
}
