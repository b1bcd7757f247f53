package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "PORT", "DATABASE_URL", "DATA_DIR", "AUDIO_DIR", "LOG_DIR",
		"LOG_LEVEL", "DEBUG_MODE", "AUTO_CONTINUE", "SESSION_IDLE_MINUTES",
		"RATE_LIMIT_PER_MINUTE", "REQUIRED_AUDIO_FILES",
	} {
		t.Setenv(key, "")
	}
	// keep godotenv from picking up a developer's .env
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, filepath.Join("data", "rehearsal.db"), cfg.DatabaseURL)
	require.True(t, cfg.AutoContinue)
	require.Equal(t, DefaultRequiredAudioFiles, cfg.RequiredAudioFiles)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "rehearsal.toml")
	content := `
port = "9000"
database_url = "/tmp/from-file.db"
auto_continue = false
required_audio_files = ["a.mp3"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "9100")
	t.Setenv("REQUIRED_AUDIO_FILES", "x.mp3, y.mp3")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "9100", cfg.Port)
	require.Equal(t, "/tmp/from-file.db", cfg.DatabaseURL)
	require.False(t, cfg.AutoContinue)
	require.Equal(t, []string{"x.mp3", "y.mp3"}, cfg.RequiredAudioFiles)
}

func TestLoadMissingConfigFileIsIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.toml"))

	_, err := Load()
	require.NoError(t, err)
}

func TestLoadRejectsBadPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "http")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "not a number")
}

func TestEnsureDirectories(t *testing.T) {
	root := t.TempDir()
	cfg := Default()
	cfg.DataDir = filepath.Join(root, "data")
	cfg.AudioDir = filepath.Join(root, "data", "audio")
	cfg.LogDir = filepath.Join(root, "logs")
	cfg.DatabaseURL = filepath.Join(root, "db", "rehearsal.db")

	require.NoError(t, cfg.EnsureDirectories())
	for _, dir := range []string{cfg.DataDir, cfg.AudioDir, cfg.LogDir, filepath.Join(root, "db")} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		require.True(t, info.IsDir())
	}
}
