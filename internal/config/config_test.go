package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgallion1/yamloutline/internal/outline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// emptyEnvFile points ENV_FILE_PATH at an empty file so a stray .env in the
// package directory cannot leak into the test.
func emptyEnvFile(t *testing.T) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "empty.env")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	t.Setenv("ENV_FILE_PATH", path)
}

func TestLoad_Defaults(t *testing.T) {
	emptyEnvFile(t)

	cfg := Load()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "8091", cfg.Port)
	assert.Equal(t, outline.DedentNearest, cfg.DedentPolicy)
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.Equal(t, 100, cfg.MaxQueueSize)
	assert.Equal(t, time.Hour, cfg.JobTTL)
	assert.False(t, cfg.CacheEnabled())
	assert.False(t, cfg.PublishEnabled())
	assert.True(t, cfg.PDFFallbackPdftotext)
}

func TestLoad_FromEnvironment(t *testing.T) {
	emptyEnvFile(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DEDENT_POLICY", "keep")
	t.Setenv("WORKER_COUNT", "-2")
	t.Setenv("CACHE_IN_MEMORY", "true")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("JOB_TTL", "not-a-duration")

	cfg := Load()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, outline.DedentKeep, cfg.DedentPolicy)
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.True(t, cfg.CacheEnabled())
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.Equal(t, time.Hour, cfg.JobTTL)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("OUTLINE_API_KEY=from-file\nPORT=7777\n"), 0o600))
	t.Setenv("ENV_FILE_PATH", path)
	// Already-set variables win over the file.
	t.Setenv("PORT", "8000")
	// Make sure the key is unset so the file value applies, and cleaned after.
	t.Setenv("OUTLINE_API_KEY", "")
	require.NoError(t, os.Unsetenv("OUTLINE_API_KEY"))

	cfg := Load()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "from-file", cfg.APIKey)
	assert.Equal(t, "8000", cfg.Port)
}

func TestLoad_MissingExplicitEnvFile(t *testing.T) {
	t.Setenv("ENV_FILE_PATH", filepath.Join(t.TempDir(), "missing.env"))

	err := Load().Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENV_FILE_PATH")
}

func TestValidate(t *testing.T) {
	emptyEnvFile(t)

	t.Run("bad policy", func(t *testing.T) {
		t.Setenv("DEDENT_POLICY", "sideways")
		assert.Error(t, Load().Validate())
	})

	t.Run("pathstore without key", func(t *testing.T) {
		t.Setenv("PATHSTORE_URL", "http://localhost:8080")
		t.Setenv("PATHSTORE_API_KEY", "")
		assert.Error(t, Load().Validate())
	})

	t.Run("negative rate", func(t *testing.T) {
		t.Setenv("RATE_LIMIT_RPS", "-1")
		assert.Error(t, Load().Validate())
	})

	t.Run("clean", func(t *testing.T) {
		assert.NoError(t, Load().Validate())
	})
}
