package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	WorkingDir    string `toml:"working_dir"`
	CredentialDir string `toml:"credential_dir"`
	SoundDir      string `toml:"sound_dir"`
	LogDir        string `toml:"log_dir"`
	APIBind       string `toml:"api_bind"`
}

// Admission contains configuration for the single-slot publish gate.
type Admission struct {
	Enabled bool `toml:"enabled"`
}

// Publish contains configuration for the browser publish driver.
type Publish struct {
	// Timeout is the overall deadline for one publish session, in seconds.
	Timeout       int    `toml:"timeout"`
	Headless      bool   `toml:"headless"`
	BrowserBinary string `toml:"browser_binary"`
	UploadURL     string `toml:"upload_url"`
}

// Mixer contains configuration for the ffmpeg sound-augmentation collaborator.
type Mixer struct {
	FFmpegBinary string `toml:"ffmpeg_binary"`
	Timeout      int    `toml:"timeout"`
}

// History contains configuration for the job history store.
type History struct {
	RetentionDays int `toml:"retention_days"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for clippub.
//
// Configuration sections by subsystem:
//   - Paths: working/credential/sound/log directories and API bind address
//   - Admission: single-slot publish gating
//   - Publish: browser driver timeout and launch settings
//   - Mixer: ffmpeg binary and mix deadline
//   - History: job record retention
//   - Logging: log format, level, and retention
type Config struct {
	Paths     Paths     `toml:"paths"`
	Admission Admission `toml:"admission"`
	Publish   Publish   `toml:"publish"`
	Mixer     Mixer     `toml:"mixer"`
	History   History   `toml:"history"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/clippub/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized. The boolean reports whether a
// file existed at the resolved path.
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

	projectPath, err := filepath.Abs("clippub.toml")
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

// EnsureDirectories creates required directories for daemon operation.
// The credential directory is created too so a fresh install has an obvious
// place to drop cookie files.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkingDir, c.Paths.CredentialDir, c.Paths.SoundDir, c.Paths.LogDir} {
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
