package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValues(t *testing.T) {
	cfg := Default("/var/bsql")
	assert.Equal(t, "/var/bsql", cfg.RootDir)
	assert.Equal(t, "0.0.0.0:4162", cfg.ListenAddr)
	assert.Equal(t, 256, cfg.MaxConns)
}

func TestLoadOverlaysOnDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bsqld.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen_addr = "127.0.0.1:5432"
log_format = "json"
`), 0o644))

	cfg, err := Load(path, Default("/var/bsql"))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:5432", cfg.ListenAddr)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "/var/bsql", cfg.RootDir) // untouched by the overlay
}

func TestLoadMissingFileIsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"), Default("/var/bsql"))
	assert.Error(t, err)
}
