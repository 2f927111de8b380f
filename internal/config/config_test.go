package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults only",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultMinYear, cfg.Pipeline.MinYear)
				assert.Equal(t, "scratch", cfg.Pipeline.DownloadsDir)
				assert.Equal(t, "deaths_data.parquet", cfg.Pipeline.OutputFile)
				assert.Equal(t, 4, cfg.Pipeline.Workers)
				assert.Equal(t, ONSDataPageURL, cfg.Source.PageURL)
				assert.Equal(t, time.Second, cfg.Source.RequestInterval)
				assert.Equal(t, "1", cfg.Transform.PreferredSheet)
				assert.Equal(t, "Figures", cfg.Transform.TargetSheet)
				assert.Equal(t, 0.6, cfg.Transform.SimilarityCutoff)
				assert.Equal(t, 9, cfg.Transform.GeoCodeLength)
				assert.Equal(t, 8000, cfg.Server.Port)
				assert.Equal(t, "info", cfg.Logging.Level)
			},
		},
		{
			name: "file overrides defaults",
			file: `
pipeline:
  min_year: 2015
  downloads_location: data
  name_of_data_file: deaths.parquet
server:
  reload_interval: 5m
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 2015, cfg.Pipeline.MinYear)
				assert.Equal(t, "data", cfg.Pipeline.DownloadsDir)
				assert.Equal(t, "deaths.parquet", cfg.Pipeline.OutputFile)
				assert.Equal(t, 5*time.Minute, cfg.Server.ReloadInterval)
				// untouched keys keep their defaults
				assert.Equal(t, 4, cfg.Pipeline.Workers)
				assert.Equal(t, 8000, cfg.Server.Port)
			},
		},
		{
			name: "environment overrides file",
			file: `
pipeline:
  min_year: 2015
`,
			env: map[string]string{
				"DEATHS_PIPELINE_MIN_YEAR":           "2019",
				"DEATHS_SERVER_PORT":                 "9090",
				"DEATHS_TRANSFORM_SIMILARITY_CUTOFF": "0.75",
				"DEATHS_LOGGING_LEVEL":               "DEBUG",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 2019, cfg.Pipeline.MinYear)
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 0.75, cfg.Transform.SimilarityCutoff)
				assert.Equal(t, "debug", cfg.Logging.Level)
			},
		},
		{
			name: "security from environment",
			env: map[string]string{
				"DEATHS_SECURITY_ADMIN_KEY":          "s3cret",
				"DEATHS_SECURITY_RATE_LIMIT_ENABLED": "false",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "s3cret", cfg.Security.AdminKey)
				assert.False(t, cfg.Security.RateLimit.Enabled)
				assert.Equal(t, []string{"*"}, cfg.Security.AllowedOrigins)
			},
		},
		{
			name:    "invalid port",
			env:     map[string]string{"DEATHS_SERVER_PORT": "99999"},
			wantErr: true,
		},
		{
			name:    "cutoff above one",
			env:     map[string]string{"DEATHS_TRANSFORM_SIMILARITY_CUTOFF": "1.5"},
			wantErr: true,
		},
		{
			name:    "unknown fetcher",
			env:     map[string]string{"DEATHS_SOURCE_FETCHER": "carrier-pigeon"},
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			file:    "pipeline: [unclosed",
			wantErr: true,
		},
		{
			name:    "file output without path",
			file:    "logging:\n  output: file\n  file_path: \"\"\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := ""
			if tt.file != "" {
				path = writeConfigFile(t, tt.file)
			}

			cfg, err := Load(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestOutputPath(t *testing.T) {
	cfg := Default()
	assert.Equal(t, filepath.Join("scratch", "deaths_data.parquet"), cfg.OutputPath())

	abs := filepath.Join(t.TempDir(), "out.parquet")
	cfg.Pipeline.OutputFile = abs
	assert.Equal(t, abs, cfg.OutputPath())
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}
