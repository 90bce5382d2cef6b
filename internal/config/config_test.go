package config

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ASSETFLOW_CONFIG", "")
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.True(t, c.Metrics.Enabled)
	assert.Equal(t, 15*time.Second, c.API.Timeout)
	assert.Empty(t, c.API.BaseURL)
	assert.Equal(t, 24*time.Hour, c.Session.TTL)
	assert.Equal(t, 10, c.List.PageSize)
	assert.Equal(t, 0.18, c.Workflows.TaxRate)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, "text", c.Log.Format)
}

func TestLoad_FileAndEnv(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "assetflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
api:
  base_url: https://assets.example.com/api
  timeout: 3s
redis:
  addr: localhost:6379
  db: 2
list:
  page_size: 25
`), 0o644))

	t.Setenv("ASSETFLOW_REDIS_DB", "4")
	t.Setenv("ASSETFLOW_WORKFLOWS_TAX_RATE", "0.2")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", c.Server.Addr)
	assert.Equal(t, "https://assets.example.com/api", c.API.BaseURL)
	assert.Equal(t, 3*time.Second, c.API.Timeout)
	assert.Equal(t, "localhost:6379", c.Redis.Addr)
	assert.Equal(t, 4, c.Redis.DB, "env overrides the file")
	assert.Equal(t, 25, c.List.PageSize)
	assert.Equal(t, 0.2, c.Workflows.TaxRate)
}

func TestLoad_ConfigEnvVar(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o644))
	t.Setenv("ASSETFLOW_CONFIG", path)

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", c.Log.Level)
}

func TestLoad_Errors(t *testing.T) {
	isolate(t)

	t.Run("Missing Explicit File", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("Invalid Values", func(t *testing.T) {
		t.Setenv("ASSETFLOW_LIST_PAGE_SIZE", "0")
		t.Setenv("ASSETFLOW_WORKFLOWS_TAX_RATE", "-1")
		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "list.page_size")
		assert.Contains(t, err.Error(), "workflows.tax_rate")
	})
}

func TestSessionConfig_Keys(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	old := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{1}, 32))

	t.Run("Disabled", func(t *testing.T) {
		active, fallback, err := SessionConfig{}.Keys()
		require.NoError(t, err)
		assert.Nil(t, active)
		assert.Nil(t, fallback)
	})

	t.Run("Active And Fallback", func(t *testing.T) {
		active, fallback, err := SessionConfig{EncryptionKey: key, FallbackKeys: []string{old}}.Keys()
		require.NoError(t, err)
		assert.Len(t, active, 32)
		require.Len(t, fallback, 1)
		assert.Equal(t, byte(1), fallback[0][0])
	})

	t.Run("Short Key Rejected By Load", func(t *testing.T) {
		isolate(t)
		t.Setenv("ASSETFLOW_SESSION_ENCRYPTION_KEY", base64.StdEncoding.EncodeToString([]byte("short")))
		_, err := Load("")
		assert.ErrorContains(t, err, "session.encryption_key")
	})
}
