package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Server contains connection settings for the generation backend.
type Server struct {
	BaseURL        string `toml:"base_url" envconfig:"EASEL_SERVER_URL"`
	APIToken       string `toml:"api_token" envconfig:"EASEL_API_TOKEN"`
	TimeoutSeconds int    `toml:"timeout_seconds" envconfig:"EASEL_SERVER_TIMEOUT"`
}

// Channel contains settings for the push-event websocket connection.
type Channel struct {
	URL                      string `toml:"url" envconfig:"EASEL_CHANNEL_URL"`
	ReconnectIntervalSeconds int    `toml:"reconnect_interval_seconds"`
}

// ReconnectInterval returns the reconnect backoff as a duration.
func (c Channel) ReconnectInterval() time.Duration {
	return time.Duration(c.ReconnectIntervalSeconds) * time.Second
}

// Generate contains default generation parameters applied when a submission
// leaves them unset.
type Generate struct {
	Width          int     `toml:"width"`
	Height         int     `toml:"height"`
	CfgScale       float64 `toml:"cfg_scale"`
	SamplingMethod string  `toml:"sampling_method"`
	SampleSteps    int     `toml:"sample_steps"`
	ClipSkip       int     `toml:"clip_skip"`
	Count          int     `toml:"count"`
}

// Queue contains settings for the client-side queue view.
type Queue struct {
	PageSize              int `toml:"page_size"`
	RefetchCoalesceMillis int `toml:"refetch_coalesce_millis"`
}

// RefetchCoalesceWindow returns the event coalescing window as a duration.
func (q Queue) RefetchCoalesceWindow() time.Duration {
	return time.Duration(q.RefetchCoalesceMillis) * time.Millisecond
}

// History contains configuration for the local submission history database.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Notifications contains configuration for ntfy push notifications emitted
// while watching the queue.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Completions    bool   `toml:"completions"`
	Failures       bool   `toml:"failures"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level" envconfig:"EASEL_LOG_LEVEL"`
	Dir    string `toml:"dir"`
}

// Config encapsulates all configuration values for easel.
//
// Configuration sections by subsystem:
//   - Server: backend REST endpoint and credentials
//   - Channel: websocket push-event connection
//   - Generate: default generation parameters
//   - Queue: queue view paging and refetch coalescing
//   - History: local submission history database
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and directory
type Config struct {
	Server        Server        `toml:"server"`
	Channel       Channel       `toml:"channel"`
	Generate      Generate      `toml:"generate"`
	Queue         Queue         `toml:"queue"`
	History       History       `toml:"history"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/easel/config.toml")
}

// Load locates, parses, and validates a configuration file. Environment
// overrides (EASEL_*) are applied after the file is read. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := envconfig.Process("easel", &cfg); err != nil {
		return nil, "", false, fmt.Errorf("apply env overrides: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("easel.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories easel writes to.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Logging.Dir}
	if c.History.Enabled && strings.TrimSpace(c.History.Path) != "" {
		dirs = append(dirs, filepath.Dir(c.History.Path))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
