package model

import (
	"fmt"
	"time"
)

// Config is the project configuration.
type Config struct {
	ProjectName     string
	BaseBranch      string
	TestCommand     string
	AgentCommand    string
	Editor          string
	SessionPrefix   string
	MonitorInterval time.Duration
}

// Default configuration values.
const (
	DefaultBaseBranch      = "main"
	DefaultTestCommand     = "go test ./..."
	DefaultAgentCommand    = "opencode"
	DefaultSessionPrefix   = "ot-"
	DefaultMonitorInterval = 30 * time.Second
)

// NewDefaultConfig returns the configuration used when nothing is configured.
func NewDefaultConfig() Config {
	return Config{
		ProjectName:     DefaultProjectName,
		BaseBranch:      DefaultBaseBranch,
		TestCommand:     DefaultTestCommand,
		AgentCommand:    DefaultAgentCommand,
		SessionPrefix:   DefaultSessionPrefix,
		MonitorInterval: DefaultMonitorInterval,
	}
}

// Merge returns a copy of c with the non zero values of override applied.
func (c Config) Merge(override Config) Config {
	if override.ProjectName != "" {
		c.ProjectName = override.ProjectName
	}
	if override.BaseBranch != "" {
		c.BaseBranch = override.BaseBranch
	}
	if override.TestCommand != "" {
		c.TestCommand = override.TestCommand
	}
	if override.AgentCommand != "" {
		c.AgentCommand = override.AgentCommand
	}
	if override.Editor != "" {
		c.Editor = override.Editor
	}
	if override.SessionPrefix != "" {
		c.SessionPrefix = override.SessionPrefix
	}
	if override.MonitorInterval != 0 {
		c.MonitorInterval = override.MonitorInterval
	}
	return c
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.BaseBranch == "" {
		return fmt.Errorf("base branch is required: %w", ErrNotValid)
	}
	if c.SessionPrefix == "" {
		return fmt.Errorf("session prefix is required: %w", ErrNotValid)
	}
	if c.MonitorInterval <= 0 {
		return fmt.Errorf("monitor interval must be positive: %w", ErrNotValid)
	}
	return nil
}

// SessionName returns the terminal session name of an engineer.
func (c *Config) SessionName(engineerID string) string {
	return c.SessionPrefix + engineerID
}
