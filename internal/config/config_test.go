package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearCI unsets CI markers for the duration of the test.
func clearCI(t *testing.T) {
	t.Helper()
	for _, name := range CIEnvVars {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearCI(t)
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/data/params.json", cfg.Path)
	assert.Equal(t, time.Second, cfg.ReadInterval)
	assert.False(t, cfg.Disabled)
	assert.Equal(t, "expr", cfg.Eval.Engine)

	mode, err := cfg.Mode()
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o764), mode)
}

func TestLoadFromEnv(t *testing.T) {
	clearCI(t)
	t.Chdir(t.TempDir())
	t.Setenv("PARAMS_PATH", "/tmp/other.json")
	t.Setenv("PARAMS_LEGACY_PATH", "/tmp/legacy.json")
	t.Setenv("PARAMS_READ_INTERVAL", "250ms")
	t.Setenv("PARAMS_FORCE_UPDATE", "true")
	t.Setenv("PARAMS_LOG_LEVEL", "debug")
	t.Setenv("PARAMS_EVAL_ENGINE", "cel")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/other.json", cfg.Path)
	assert.Equal(t, "/tmp/legacy.json", cfg.LegacyPath)
	assert.Equal(t, 250*time.Millisecond, cfg.ReadInterval)
	assert.True(t, cfg.ForceUpdate)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "cel", cfg.Eval.Engine)
}

func TestLoadFromFile(t *testing.T) {
	clearCI(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(file, []byte("path: "+filepath.Join(dir, "p.json")+"\nfile_mode: \"0640\"\nlog:\n  file: "+filepath.Join(dir, "log.json")+"\n"), 0o600))

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "p.json"), cfg.Path)
	assert.Equal(t, filepath.Join(dir, "log.json"), cfg.Log.File)
	mode, err := cfg.Mode()
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), mode)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	clearCI(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestCIForcesDisabled(t *testing.T) {
	clearCI(t)
	t.Chdir(t.TempDir())
	t.Setenv("TRAVIS", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Disabled)
}

func TestCIMarkerValues(t *testing.T) {
	cases := map[string]bool{
		"":           false,
		"false":      false,
		"0":          false,
		"true":       true,
		"1":          true,
		"woodpecker": true,
	}
	for value, disabled := range cases {
		t.Run("CI="+value, func(t *testing.T) {
			clearCI(t)
			t.Chdir(t.TempDir())
			t.Setenv("CI", value)

			cfg, err := Load("")
			require.NoError(t, err)
			assert.Equal(t, disabled, cfg.Disabled)
		})
	}
}

func TestValidateRejectsBadMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FileMode = "rwx"
	assert.Error(t, cfg.Validate())

	cfg.FileMode = "0764"
	cfg.Path = ""
	assert.Error(t, cfg.Validate())

	cfg.Disabled = true
	assert.NoError(t, cfg.Validate())
}

func TestStoreConfigReadsDefaultsFile(t *testing.T) {
	dir := t.TempDir()
	defaults := filepath.Join(dir, "defaults.json")
	require.NoError(t, os.WriteFile(defaults, []byte(`{"camera_offset":0.06,"osm":true,"lane_hug_direction":null}`), 0o600))

	cfg := DefaultConfig()
	cfg.Path = filepath.Join(dir, "params.json")
	cfg.DefaultsFile = defaults

	storeCfg, err := cfg.StoreConfig()
	require.NoError(t, err)
	assert.Equal(t, cfg.Path, storeCfg.Path)
	assert.Equal(t, os.FileMode(0o764), storeCfg.FileMode)
	require.Len(t, storeCfg.Defaults, 3)
	assert.True(t, storeCfg.Defaults["lane_hug_direction"].IsNull())

	cfg.DefaultsFile = filepath.Join(dir, "missing.json")
	_, err = cfg.StoreConfig()
	assert.Error(t, err)
}
