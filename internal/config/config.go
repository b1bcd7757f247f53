// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// DefaultRequiredAudioFiles are the placeholder assets referenced by the seed scripts.
var DefaultRequiredAudioFiles = []string{
	"romeo1.mp3", "romeo2.mp3", "juliet1.mp3", "juliet2.mp3",
	"ali1.mp3", "ali2.mp3", "ayse1.mp3", "ayse2.mp3",
}

// Config holds the application configuration.
type Config struct {
	Port               string   `toml:"port"`
	DatabaseURL        string   `toml:"database_url"`
	DataDir            string   `toml:"data_dir"`
	AudioDir           string   `toml:"audio_dir"`
	LogDir             string   `toml:"log_dir"`
	LogLevel           string   `toml:"log_level"`
	DebugMode          bool     `toml:"debug_mode"`
	AutoContinue       bool     `toml:"auto_continue"`
	SessionIdleMinutes int      `toml:"session_idle_minutes"`
	RateLimitPerMinute int      `toml:"rate_limit_per_minute"`
	RequiredAudioFiles []string `toml:"required_audio_files"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:               "8080",
		DatabaseURL:        filepath.Join("data", "rehearsal.db"),
		DataDir:            "data",
		AudioDir:           filepath.Join("data", "audio"),
		LogDir:             "logs",
		LogLevel:           "info",
		DebugMode:          false,
		AutoContinue:       true,
		SessionIdleMinutes: 60,
		RateLimitPerMinute: 300,
		RequiredAudioFiles: append([]string(nil), DefaultRequiredAudioFiles...),
	}
}

// Load builds the configuration from defaults, an optional TOML file named by
// CONFIG_FILE, and environment variables (a .env file is read first if present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.DataDir = getEnv("DATA_DIR", cfg.DataDir)
	cfg.AudioDir = getEnv("AUDIO_DIR", cfg.AudioDir)
	cfg.LogDir = getEnv("LOG_DIR", cfg.LogDir)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.DebugMode = getEnvBool("DEBUG_MODE", cfg.DebugMode)
	cfg.AutoContinue = getEnvBool("AUTO_CONTINUE", cfg.AutoContinue)
	cfg.SessionIdleMinutes = getEnvInt("SESSION_IDLE_MINUTES", cfg.SessionIdleMinutes)
	cfg.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", cfg.RateLimitPerMinute)
	if files := getEnvList("REQUIRED_AUDIO_FILES"); len(files) > 0 {
		cfg.RequiredAudioFiles = files
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFile overlays values from a TOML file. A missing file is not an error.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks the values that cannot be defaulted sensibly.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return errors.New("port must not be empty")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("port %q is not a number", c.Port)
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return errors.New("database_url must not be empty")
	}
	if c.SessionIdleMinutes < 0 {
		return fmt.Errorf("session_idle_minutes must be >= 0, got %d", c.SessionIdleMinutes)
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("rate_limit_per_minute must be >= 0, got %d", c.RateLimitPerMinute)
	}
	return nil
}

// SessionIdleTimeout is the age after which an untouched rehearsal session is dropped.
func (c *Config) SessionIdleTimeout() time.Duration {
	return time.Duration(c.SessionIdleMinutes) * time.Minute
}

// LogFile is the path of the application log file.
func (c *Config) LogFile() string {
	return filepath.Join(c.LogDir, "rehearsal.log")
}

// EnsureDirectories creates the data, audio and log directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.DataDir, c.AudioDir, c.LogDir}
	if dir := filepath.Dir(c.DatabaseURL); dir != "." && !strings.Contains(c.DatabaseURL, ":memory:") {
		dirs = append(dirs, dir)
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
