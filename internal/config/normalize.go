package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePublish()
	c.normalizeMixer()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.WorkingDir, err = expandPath(c.Paths.WorkingDir); err != nil {
		return fmt.Errorf("paths.working_dir: %w", err)
	}
	if c.Paths.CredentialDir, err = expandPath(c.Paths.CredentialDir); err != nil {
		return fmt.Errorf("paths.credential_dir: %w", err)
	}
	if c.Paths.SoundDir, err = expandPath(c.Paths.SoundDir); err != nil {
		return fmt.Errorf("paths.sound_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizePublish() {
	if c.Publish.Timeout <= 0 {
		c.Publish.Timeout = defaultPublishTimeout
	}
	c.Publish.BrowserBinary = strings.TrimSpace(c.Publish.BrowserBinary)
	c.Publish.UploadURL = strings.TrimSpace(c.Publish.UploadURL)
	if c.Publish.UploadURL == "" {
		c.Publish.UploadURL = defaultUploadURL
	}
}

func (c *Config) normalizeMixer() {
	c.Mixer.FFmpegBinary = strings.TrimSpace(c.Mixer.FFmpegBinary)
	if c.Mixer.FFmpegBinary == "" {
		c.Mixer.FFmpegBinary = defaultFFmpegBinary
	}
	if c.Mixer.Timeout <= 0 {
		c.Mixer.Timeout = defaultMixTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
