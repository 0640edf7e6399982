package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	if err := c.validateMixer(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.History.RetentionDays < 0 {
		return errors.New("history.retention_days must not be negative")
	}
	return nil
}

func (c *Config) validatePaths() error {
	required := map[string]string{
		"paths.working_dir":    c.Paths.WorkingDir,
		"paths.credential_dir": c.Paths.CredentialDir,
		"paths.sound_dir":      c.Paths.SoundDir,
		"paths.log_dir":        c.Paths.LogDir,
	}
	for key, value := range required {
		if value == "" {
			return fmt.Errorf("%s must be set", key)
		}
	}
	if c.Paths.WorkingDir == c.Paths.CredentialDir {
		return errors.New("paths.working_dir and paths.credential_dir must differ")
	}
	return nil
}

func (c *Config) validatePublish() error {
	if c.Publish.Timeout <= 0 {
		return errors.New("publish.timeout must be positive")
	}
	if c.Publish.UploadURL == "" {
		return errors.New("publish.upload_url must be set")
	}
	return nil
}

func (c *Config) validateMixer() error {
	if c.Mixer.FFmpegBinary == "" {
		return errors.New("mixer.ffmpeg_binary must be set")
	}
	if c.Mixer.Timeout <= 0 {
		return errors.New("mixer.timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
