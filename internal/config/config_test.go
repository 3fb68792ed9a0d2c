package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_AppliesDefaults(t *testing.T) {
	t.Setenv("CLICKHOUSE_HOST", "localhost")
	t.Setenv("CLICKHOUSE_DB", "warehouse")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.ServiceEnvironment)
	assert.Equal(t, "9000", cfg.ClickHousePort)
	assert.Equal(t, 5, cfg.ClickHouseMaxOpenConns)
	assert.Equal(t, "order_id", cfg.CurateDedupKey)
	assert.Equal(t, 10, cfg.UploadParallelism)
}

func TestLoad_RequiresClickHouseHost(t *testing.T) {
	t.Setenv("CLICKHOUSE_HOST", "placeholder")
	t.Setenv("CLICKHOUSE_DB", "warehouse")
	require.NoError(t, os.Unsetenv("CLICKHOUSE_HOST"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ReadsOverrides(t *testing.T) {
	t.Setenv("CLICKHOUSE_HOST", "ch.internal")
	t.Setenv("CLICKHOUSE_DB", "warehouse")
	t.Setenv("CLICKHOUSE_PORT", "9440")
	t.Setenv("CLICKHOUSE_USE_TLS", "true")
	t.Setenv("CURATE_DEDUP_KEY", "order_date")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ch.internal", cfg.ClickHouseHost)
	assert.Equal(t, "9440", cfg.ClickHousePort)
	assert.True(t, cfg.ClickHouseUseTLS)
	assert.Equal(t, "order_date", cfg.CurateDedupKey)
}
