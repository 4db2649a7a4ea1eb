package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ADPULSE_DATABASE_PATH", "ADPULSE_DATABASE_TABLE",
		"ADPULSE_ANALYSIS_START_DATE", "ADPULSE_ANALYSIS_END_DATE",
		"ADPULSE_OUTPUT_DIR", "ADPULSE_LOGGING_LEVEL", "ADPULSE_LOGGING_FORMAT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "data/ads.db", cfg.Database.Path)
	assert.Equal(t, "advert_stats", cfg.Database.Table)
	assert.Equal(t, "2026-01-01", cfg.Analysis.StartDate)
	assert.Equal(t, "2026-02-01", cfg.Analysis.EndDate)
	assert.Equal(t, ".", cfg.Output.Dir)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "adpulse.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  path: /data/file.db
  table: file_table
analysis:
  start_date: "2026-03-01"
  end_date: "2026-03-31"
`), 0o644))

	t.Setenv("ADPULSE_DATABASE_TABLE", "env_table")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/file.db", cfg.Database.Path)
	assert.Equal(t, "env_table", cfg.Database.Table)
	assert.Equal(t, "2026-03-01", cfg.Analysis.StartDate)
	assert.Equal(t, "2026-03-31", cfg.Analysis.EndDate)
}

func TestLoadRejectsBadDates(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"malformed start date", "ADPULSE_ANALYSIS_START_DATE", "01-01-2026"},
		{"malformed end date", "ADPULSE_ANALYSIS_END_DATE", "not-a-date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoadRejectsInvertedWindow(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADPULSE_ANALYSIS_START_DATE", "2026-02-01")
	t.Setenv("ADPULSE_ANALYSIS_END_DATE", "2026-01-01")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "precedes")
}

func TestLoadRejectsBadLoggingLevel(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADPULSE_LOGGING_LEVEL", "loud")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}
