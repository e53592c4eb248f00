package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_DefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:7000/api/v1", cfg.Collection.BaseURL)
	assert.Equal(t, 10, cfg.Collection.PageSize)
	assert.Equal(t, EmptyPageStay, cfg.Collection.EmptyPagePolicy)

	every, err := cfg.Collection.PollEvery()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, every)
}

func TestLoadConfig_YAMLKeepsUnsetDefaults(t *testing.T) {
	path := writeConfig(t, `
collection:
  baseURL: http://collector.internal/api/v1
  pageSize: 20
  emptyPagePolicy: step_back
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://collector.internal/api/v1", cfg.Collection.BaseURL)
	assert.Equal(t, 20, cfg.Collection.PageSize)
	assert.Equal(t, EmptyPageStepBack, cfg.Collection.EmptyPagePolicy)
	assert.Equal(t, "2s", cfg.Collection.PollInterval)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoadConfig_EnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, `
collection:
  baseURL: http://from-yaml/api/v1
`)
	t.Setenv("COLLECTION_BASE_URL", "http://from-env/api/v1")
	t.Setenv("COLLECTION_PAGE_SIZE", "50")
	t.Setenv("LOG_KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://from-env/api/v1", cfg.Collection.BaseURL)
	assert.Equal(t, 50, cfg.Collection.PageSize)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Logger.Kafka.Brokers)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "page size too large", body: "collection:\n  pageSize: 101\n"},
		{name: "page size zero", body: "collection:\n  pageSize: 0\n"},
		{name: "unknown policy", body: "collection:\n  emptyPagePolicy: jump\n"},
		{name: "bad poll interval", body: "collection:\n  pollInterval: soon\n"},
		{name: "zero poll interval", body: "collection:\n  pollInterval: 0s\n"},
		{name: "bad cache ttl", body: "cache:\n  ttl: forever\n"},
		{name: "broken yaml", body: "collection: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSampleConfigLoads(t *testing.T) {
	cfg, err := LoadConfig("config.yaml")
	require.NoError(t, err)
	assert.True(t, cfg.Journal.Enabled)
	assert.Equal(t, "text", cfg.Logger.Format)
}
