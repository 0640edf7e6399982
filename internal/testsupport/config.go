// Package testsupport provides helpers for constructing throwaway
// configurations and fixtures in tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"clippub/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WorkingDir = filepath.Join(base, "work")
	cfgVal.Paths.CredentialDir = filepath.Join(base, "cookies")
	cfgVal.Paths.SoundDir = filepath.Join(base, "sounds")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Publish.Headless = true

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithGatingDisabled turns the single-slot admission gate off.
func WithGatingDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Admission.Enabled = false
	}
}

// WithPublishTimeout overrides the publish deadline in seconds.
func WithPublishTimeout(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Publish.Timeout = seconds
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// WriteCredential drops a Netscape-format cookie file for the account into
// the config's credential directory and returns its path.
func WriteCredential(t testing.TB, cfg *config.Config, account, body string) string {
	t.Helper()
	path := filepath.Join(cfg.Paths.CredentialDir, account+".txt")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write credential %s: %v", account, err)
	}
	return path
}

// WriteSound drops a sound file with the given identifier into the config's
// sound directory and returns its path.
func WriteSound(t testing.TB, cfg *config.Config, soundID string) string {
	t.Helper()
	path := filepath.Join(cfg.Paths.SoundDir, soundID+".mp3")
	if err := os.WriteFile(path, []byte("ID3"), 0o644); err != nil {
		t.Fatalf("write sound %s: %v", soundID, err)
	}
	return path
}
