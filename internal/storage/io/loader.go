package io

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/slok/opentown/internal/model"
)

// ConfigYAMLRepository loads and saves the project configuration as YAML files.
type ConfigYAMLRepository struct {
	fs afero.Fs
}

// NewConfigYAMLRepository creates a new YAML config repository.
func NewConfigYAMLRepository(filesystem afero.Fs) *ConfigYAMLRepository {
	return &ConfigYAMLRepository{fs: filesystem}
}

// GetConfig loads a configuration file. Only the fields present in the file are set,
// missing files return model.ErrNotFound.
func (r *ConfigYAMLRepository) GetConfig(ctx context.Context, path string) (model.Config, error) {
	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err) {
			return model.Config{}, fmt.Errorf("config %s: %w", path, model.ErrNotFound)
		}
		return model.Config{}, fmt.Errorf("reading config file: %w", err)
	}

	if ctx.Err() != nil {
		return model.Config{}, ctx.Err()
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return model.Config{}, fmt.Errorf("parsing YAML: %w", err)
	}

	m, err := cfg.toModel()
	if err != nil {
		return model.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return m, nil
}

// LoadConfig returns the defaults overridden by each of the config files in order, files
// that don't exist are skipped.
func (r *ConfigYAMLRepository) LoadConfig(ctx context.Context, paths ...string) (model.Config, error) {
	cfg := model.NewDefaultConfig()
	for _, p := range paths {
		if p == "" {
			continue
		}

		c, err := r.GetConfig(ctx, p)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				continue
			}
			return model.Config{}, err
		}
		cfg = cfg.Merge(c)
	}

	if err := cfg.Validate(); err != nil {
		return model.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig writes the configuration file.
func (r *ConfigYAMLRepository) SaveConfig(ctx context.Context, path string, cfg model.Config) error {
	data, err := yaml.Marshal(fromModel(cfg))
	if err != nil {
		return fmt.Errorf("encoding YAML: %w", err)
	}

	if err := r.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("could not create config dir: %w", err)
	}

	if err := afero.WriteFile(r.fs, path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// ProjectConfig represents the YAML structure for the project configuration.
type ProjectConfig struct {
	ProjectName     string `yaml:"project_name,omitempty"`
	BaseBranch      string `yaml:"base_branch,omitempty"`
	TestCommand     string `yaml:"test_command,omitempty"`
	AgentCommand    string `yaml:"agent_command,omitempty"`
	Editor          string `yaml:"editor,omitempty"`
	SessionPrefix   string `yaml:"session_prefix,omitempty"`
	MonitorInterval string `yaml:"monitor_interval,omitempty"`
}

func (c ProjectConfig) toModel() (model.Config, error) {
	cfg := model.Config{
		ProjectName:   c.ProjectName,
		BaseBranch:    c.BaseBranch,
		TestCommand:   c.TestCommand,
		AgentCommand:  c.AgentCommand,
		Editor:        c.Editor,
		SessionPrefix: c.SessionPrefix,
	}

	if c.MonitorInterval != "" {
		d, err := time.ParseDuration(c.MonitorInterval)
		if err != nil {
			return model.Config{}, fmt.Errorf("monitor_interval: %w", err)
		}
		if d <= 0 {
			return model.Config{}, fmt.Errorf("monitor_interval must be positive, got: %s", c.MonitorInterval)
		}
		cfg.MonitorInterval = d
	}

	return cfg, nil
}

func fromModel(c model.Config) ProjectConfig {
	pc := ProjectConfig{
		ProjectName:   c.ProjectName,
		BaseBranch:    c.BaseBranch,
		TestCommand:   c.TestCommand,
		AgentCommand:  c.AgentCommand,
		Editor:        c.Editor,
		SessionPrefix: c.SessionPrefix,
	}
	if c.MonitorInterval > 0 {
		pc.MonitorInterval = c.MonitorInterval.String()
	}
	return pc
}
