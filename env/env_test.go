package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Setenv("FRAMES_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	e, err := New()
	require.NoError(t, err)
	assert.Empty(t, e.Path())
	assert.Equal(t, "auto", e.Backend())
	assert.Equal(t, ":8080", e.Addr())
	assert.False(t, e.Debug())
}

func TestConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: Fallback\nserve:\n  addr: 127.0.0.1:9000\n"), 0o600))
	t.Setenv("FRAMES_CONFIG", path)

	e, err := New()
	require.NoError(t, err)
	assert.Equal(t, path, e.Path())
	assert.Equal(t, "fallback", e.Backend())
	assert.Equal(t, "127.0.0.1:9000", e.Addr())

	t.Setenv("FRAMES_BACKEND", "native")
	t.Setenv("FRAMES_LOG_DEBUG", "true")
	e, err = New()
	require.NoError(t, err)
	assert.Equal(t, "native", e.Backend())
	assert.True(t, e.Debug())
}

func TestBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: [unterminated\n"), 0o600))
	t.Setenv("FRAMES_CONFIG", path)

	_, err := New()
	assert.Error(t, err)
}
