package smclient

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidewater-io/smapi/pkg/smapi"
)

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smapi", "config.yaml")

	original := &smapi.Config{
		Host:      "array.example.com",
		Port:      8443,
		Username:  "admin",
		Password:  "secret",
		VerifyTLS: true,
		Timeout:   45 * time.Second,
		RetryMax:  2,
		UserAgent: "smapi-test/1.0",
	}

	require.NoError(t, SaveConfig(original, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, SaveConfig(&smapi.Config{
		Host:      "from-file.example.com",
		Username:  "file-user",
		Password:  "file-pass",
		VerifyTLS: true,
	}, path))

	t.Setenv("SMAPI_HOST", "from-env.example.com")
	t.Setenv("SMAPI_PASSWORD", "env-pass")

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env.example.com", loaded.Host)
	assert.Equal(t, "file-user", loaded.Username)
	assert.Equal(t, "env-pass", loaded.Password)
}

func TestLoadConfig_EnvOnly(t *testing.T) {
	t.Setenv("SMAPI_HOST", "array.example.com")
	t.Setenv("SMAPI_USERNAME", "admin")
	t.Setenv("SMAPI_PASSWORD", "secret")
	t.Setenv("SMAPI_DEBUG", "true")

	loaded, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "array.example.com", loaded.Host)
	assert.Equal(t, "admin", loaded.Username)
	assert.True(t, loaded.Debug)
	assert.True(t, loaded.VerifyTLS)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestSaveConfig_NilConfig(t *testing.T) {
	t.Parallel()

	err := SaveConfig(nil, filepath.Join(t.TempDir(), "config.yaml"))
	assert.ErrorIs(t, err, smapi.ErrConfigRequired)
}
