package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SOURCE_TIMEOUT", "")
	t.Setenv("SOURCE_DATASET_TIMEOUT", "")
	t.Setenv("SYNC_INTERVAL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Source.Timeout)
	assert.Equal(t, 2*time.Minute, cfg.Source.DatasetTimeout)
	assert.Equal(t, time.Duration(0), cfg.Sync.Interval)
	assert.NotEmpty(t, cfg.CORS.AllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SOURCE_TIMEOUT", "2s")
	t.Setenv("SOURCE_DATASET_TIMEOUT", "30s")
	t.Setenv("SYNC_INTERVAL", "1h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "flights")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Source.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Source.DatasetTimeout)
	assert.Equal(t, time.Hour, cfg.Sync.Interval)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Contains(t, cfg.Database.DSN(), "@db:5432/flights")
}

func TestLoad_RejectsNegativeDatasetTimeout(t *testing.T) {
	t.Setenv("SOURCE_DATASET_TIMEOUT", "-1m")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsNonPositiveSourceTimeout(t *testing.T) {
	t.Setenv("SOURCE_TIMEOUT", "-1s")

	_, err := Load()
	assert.Error(t, err)
}
