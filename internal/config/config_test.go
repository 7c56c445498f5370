package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonathan/talent-pipeline/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"DATABASE_URL", "PORT", "PROBATION_DAYS", "HISTORY_PAGE_SIZE", "NOTIFY_WORKERS", "NOTIFY_QUEUE_SIZE", "NOTIFY_MAX_ATTEMPTS", "NOTIFY_WEBHOOK_URL", "STAGE_TEMPLATE_PATH"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "", cfg.DatabaseURL)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, DefaultProbationDays, cfg.ProbationDays)
	assert.Equal(t, DefaultHistoryPageSize, cfg.HistoryPageSize)
	assert.Equal(t, DefaultNotifyWorkers, cfg.NotifyWorkers)
	assert.Equal(t, DefaultNotifyQueueSize, cfg.NotifyQueueSize)
	assert.Equal(t, DefaultNotifyMaxAttempts, cfg.NotifyMaxAttempts)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/talent")
	t.Setenv("PORT", "9090")
	t.Setenv("PROBATION_DAYS", "30")
	t.Setenv("NOTIFY_WEBHOOK_URL", "http://hooks.local/stage")
	t.Setenv("NOTIFY_WORKERS", "4")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/talent", cfg.DatabaseURL)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 30, cfg.ProbationDays)
	assert.Equal(t, "http://hooks.local/stage", cfg.NotifyWebhookURL)
	assert.Equal(t, 4, cfg.NotifyWorkers)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric port", "PORT", "http"},
		{"port out of range", "PORT", "70000"},
		{"negative probation", "PROBATION_DAYS", "-1"},
		{"zero page size", "HISTORY_PAGE_SIZE", "0"},
		{"zero workers", "NOTIFY_WORKERS", "0"},
		{"missing template file", "STAGE_TEMPLATE_PATH", "/nonexistent/stages.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestDefaultStageTemplate(t *testing.T) {
	stages := DefaultStageTemplate()
	require.Len(t, stages, 8)

	names := make([]string, len(stages))
	for i, st := range stages {
		names[i] = st.Name
	}
	assert.Equal(t, []string{"Sourced", "Shortlisted", "Test", "Interview", "Selected", "Rejected", "On Hold", "Cancelled"}, names)
	assert.Equal(t, types.StageSelected, stages[4].Type)
	assert.Equal(t, types.StageCancelled, stages[7].Type)
}

func TestLoadStageTemplate(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
		return path
	}

	t.Run("empty path uses default", func(t *testing.T) {
		stages, err := LoadStageTemplate("")
		require.NoError(t, err)
		assert.Len(t, stages, 8)
	})

	t.Run("custom file", func(t *testing.T) {
		path := write("short.yaml", "stages:\n  - name: Applied\n    type: sourced\n  - name: Hired\n    type: selected\n")
		stages, err := LoadStageTemplate(path)
		require.NoError(t, err)
		assert.Equal(t, []types.StageTemplate{{Name: "Applied", Type: types.StageSourced}, {Name: "Hired", Type: types.StageSelected}}, stages)
	})

	t.Run("unknown stage type", func(t *testing.T) {
		path := write("bad-type.yaml", "stages:\n  - name: Limbo\n    type: limbo\n")
		_, err := LoadStageTemplate(path)
		assert.ErrorContains(t, err, "unknown stage type")
	})

	t.Run("empty list", func(t *testing.T) {
		path := write("empty.yaml", "stages: []\n")
		_, err := LoadStageTemplate(path)
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := write("broken.yaml", "stages: [\n")
		_, err := LoadStageTemplate(path)
		assert.ErrorContains(t, err, "failed to parse")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadStageTemplate(filepath.Join(dir, "nope.yaml"))
		assert.ErrorContains(t, err, "failed to read")
	})
}
