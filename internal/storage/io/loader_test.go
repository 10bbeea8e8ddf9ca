package io_test

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/opentown/internal/model"
	storageio "github.com/slok/opentown/internal/storage/io"
)

func TestConfigYAMLRepositoryGetConfig(t *testing.T) {
	tests := map[string]struct {
		files  map[string]string
		path   string
		expCfg model.Config
		expErr error
		errAny bool
	}{
		"A full config should load successfully.": {
			files: map[string]string{
				"/p/.town/config.yaml": `project_name: town
base_branch: develop
test_command: make test
agent_command: claude
editor: vim
session_prefix: "t-"
monitor_interval: 5s
`,
			},
			path: "/p/.town/config.yaml",
			expCfg: model.Config{
				ProjectName:     "town",
				BaseBranch:      "develop",
				TestCommand:     "make test",
				AgentCommand:    "claude",
				Editor:          "vim",
				SessionPrefix:   "t-",
				MonitorInterval: 5 * time.Second,
			},
		},

		"A partial config should only set the present fields.": {
			files: map[string]string{
				"/p/.town/config.yaml": "base_branch: trunk\n",
			},
			path:   "/p/.town/config.yaml",
			expCfg: model.Config{BaseBranch: "trunk"},
		},

		"A missing config should fail with not found.": {
			path:   "/p/.town/config.yaml",
			expErr: model.ErrNotFound,
		},

		"An invalid duration should fail.": {
			files: map[string]string{
				"/p/.town/config.yaml": "monitor_interval: soon\n",
			},
			path:   "/p/.town/config.yaml",
			errAny: true,
		},

		"A negative duration should fail.": {
			files: map[string]string{
				"/p/.town/config.yaml": "monitor_interval: -1s\n",
			},
			path:   "/p/.town/config.yaml",
			errAny: true,
		},

		"Invalid YAML should fail.": {
			files: map[string]string{
				"/p/.town/config.yaml": "base_branch: [\n",
			},
			path:   "/p/.town/config.yaml",
			errAny: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			fs := afero.NewMemMapFs()
			for p, c := range test.files {
				require.NoError(afero.WriteFile(fs, p, []byte(c), 0644))
			}

			repo := storageio.NewConfigYAMLRepository(fs)
			cfg, err := repo.GetConfig(context.Background(), test.path)

			switch {
			case test.expErr != nil:
				assert.ErrorIs(err, test.expErr)
			case test.errAny:
				assert.Error(err)
			default:
				require.NoError(err)
				assert.Equal(test.expCfg, cfg)
			}
		})
	}
}

func TestConfigYAMLRepositoryLoadConfig(t *testing.T) {
	tests := map[string]struct {
		files  map[string]string
		expCfg model.Config
	}{
		"Without files the defaults should be used.": {
			expCfg: model.NewDefaultConfig(),
		},

		"Project config should override user config.": {
			files: map[string]string{
				"/home/u/.opentown/config.yaml": "base_branch: develop\neditor: emacs\n",
				"/p/.town/config.yaml":          "base_branch: trunk\n",
			},
			expCfg: func() model.Config {
				c := model.NewDefaultConfig()
				c.BaseBranch = "trunk"
				c.Editor = "emacs"
				return c
			}(),
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			for p, c := range test.files {
				require.NoError(t, afero.WriteFile(fs, p, []byte(c), 0644))
			}

			repo := storageio.NewConfigYAMLRepository(fs)
			cfg, err := repo.LoadConfig(context.Background(), "/home/u/.opentown/config.yaml", "/p/.town/config.yaml")
			require.NoError(t, err)
			assert.Equal(t, test.expCfg, cfg)
		})
	}
}

func TestConfigYAMLRepositorySaveConfig(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	repo := storageio.NewConfigYAMLRepository(fs)

	cfg := model.NewDefaultConfig()
	cfg.ProjectName = "town"
	require.NoError(t, repo.SaveConfig(ctx, "/p/.town/config.yaml", cfg))

	got, err := repo.GetConfig(ctx, "/p/.town/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}
