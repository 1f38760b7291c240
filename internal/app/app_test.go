package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, "custom.toml", ConfigPath("custom.toml"))
	assert.Equal(t, "config/config.toml", ConfigPath(""))

	t.Setenv("CONFIG_PATH", "/etc/linkgraph.toml")
	assert.Equal(t, "/etc/linkgraph.toml", ConfigPath(""))
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[wiki]\napi_url = \"https://example.org/api.php\"\nbatch_size = 20\n"), 0644))
	t.Setenv("WORKERS", "3")
	t.Setenv("MEMGRAPH_URI", "")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/api.php", cfg.Wiki.APIURL)
	assert.Equal(t, 20, cfg.Wiki.BatchSize)
	assert.Equal(t, 3, cfg.Concurrency.Workers)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[wiki]\nbatch_size = 500\n"), 0644))
	t.Setenv("BATCH_SIZE", "")

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestNew_WithoutMemgraph(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")
	t.Setenv("MEMGRAPH_URI", "")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	cfg.Memgraph.Enabled = false

	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, a.Store)
	assert.NotNil(t, a.Pipeline)
	assert.Len(t, a.Pipeline.Sinks, 1)
	assert.NoError(t, a.Close(context.Background()))
}
