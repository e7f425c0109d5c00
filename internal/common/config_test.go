package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8230, cfg.Server.Port)
	assert.Contains(t, cfg.Publisher.NewNoteURL, "note.com")
}

func TestLoadFromFiles_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
environment = "production"

[server]
port = 9000

[publisher]
hydration_max_rounds = 10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Publisher.HydrationMaxRounds)
	// Untouched values keep defaults
	assert.Equal(t, "localhost", cfg.Server.Host)
}

func TestLoadFromFiles_MissingFileErrors(t *testing.T) {
	_, err := LoadFromFiles("/nonexistent/config.toml")
	assert.Error(t, err)
}

func TestLoadFromFiles_EnvOverridesFile(t *testing.T) {
	t.Setenv("NOTEAGENT_SERVER_PORT", "9999")
	t.Setenv("NOTEAGENT_BROWSER_HEADLESS", "false")

	cfg, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.False(t, cfg.Browser.Headless)
}

func TestValidate_RejectsBadEnvironment(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Environment = "staging"
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsBadPort(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Port = 70000
	assert.Error(t, cfg.Validate())
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := DefaultConfig()
	ApplyFlagOverrides(cfg, 8500, "0.0.0.0")
	assert.Equal(t, 8500, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	ApplyFlagOverrides(cfg, 0, "")
	assert.Equal(t, 8500, cfg.Server.Port)
}
