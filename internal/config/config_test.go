package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Nil(t, cfg.Parser.ProgressEvery)
	assert.Nil(t, cfg.Cache.Dir)
}

func TestLoadConfigValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[parser]
progress-every = 500

[cache]
dir = "/srv/tally/data"

[log]
level = "debug"

[report]
table = true
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Parser.ProgressEvery)
	assert.Equal(t, 500, *cfg.Parser.ProgressEvery)
	require.NotNil(t, cfg.Cache.Dir)
	assert.Equal(t, "/srv/tally/data", *cfg.Cache.Dir)
	require.NotNil(t, cfg.Log.Level)
	assert.Equal(t, "debug", *cfg.Log.Level)
	assert.Nil(t, cfg.Log.File)
	require.NotNil(t, cfg.Report.Table)
	assert.True(t, *cfg.Report.Table)
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[parser]\nelement = \"visit\"\n"), 0o644))
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parser.element")
}

func TestLoadConfigEmptyPath(t *testing.T) {
	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestXDGPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_STATE_HOME", "/state")
	assert.Equal(t, filepath.Join("/cfg", "tally", "config.toml"), DefaultConfigPath())
	assert.Equal(t, filepath.Join("/state", "tally", "tally.log"), DefaultLogPath())
	assert.Equal(t, "data", filepath.Base(DefaultCacheDir()))
}
