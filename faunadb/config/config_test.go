package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krew-solutions/faunadb-go/faunadb/client"
	"github.com/krew-solutions/faunadb-go/faunadb/connection"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fauna.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, connection.DefaultRoot, cfg.RootURL)
	assert.Equal(t, connection.DefaultTimeout, cfg.Timeout)
	assert.Zero(t, cfg.PoolSize)
	assert.Equal(t, "INFO", cfg.LogLevel)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
root_url: http://localhost:8443
root_token: from-file
timeout: 5s
rate_limit: 2.5
pool_size: 4
log_level: debug
log_format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, &Config{
		RootURL:   "http://localhost:8443",
		RootToken: "from-file",
		Timeout:   5 * time.Second,
		RateLimit: 2.5,
		PoolSize:  4,
		LogLevel:  "debug",
		LogFormat: "json",
	}, cfg)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "root_token: from-file\npool_size: 4\n")
	t.Setenv("FAUNA_ROOT_TOKEN", "from-env")
	t.Setenv("FAUNA_TIMEOUT", "250ms")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.RootToken)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
	assert.Equal(t, 4, cfg.PoolSize)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := &Config{
		RootURL:   "ftp://example.com",
		Timeout:   0,
		RateLimit: -1,
		PoolSize:  -1,
		LogLevel:  "loud",
		LogFormat: "xml",
	}
	err := cfg.Validate()
	require.Error(t, err)
	for _, fragment := range []string{"root_url", "timeout", "rate_limit", "pool_size", "log_level", "log_format"} {
		assert.Contains(t, err.Error(), fragment)
	}
}

func TestLoadRejectsInvalidEnvironment(t *testing.T) {
	t.Setenv("FAUNA_POOL_SIZE", "-3")
	_, err := Load("")
	assert.ErrorContains(t, err, "pool_size")
}

func TestOptionsBuildWorkingClient(t *testing.T) {
	cfg := &Config{
		RootURL:   "http://localhost:8443",
		RootToken: "secret",
		Timeout:   time.Second,
		RateLimit: 10,
		PoolSize:  2,
		LogLevel:  "DEBUG",
		LogFormat: "json",
	}
	require.NoError(t, cfg.Validate())

	conn, err := connection.New(cfg.ConnectionOptions()...)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8443", conn.Root())

	var logs bytes.Buffer
	c, err := client.New(conn, cfg.ClientOptions(&logs)...)
	require.NoError(t, err)
	c.Close()

	cfg.Logger(&logs).Debug("configured")
	assert.Contains(t, logs.String(), `"msg":"configured"`)
}
