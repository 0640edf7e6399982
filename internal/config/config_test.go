package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, path, exists, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatalf("exists = true, want false")
	}
	if path == "" {
		t.Fatalf("resolved path is empty")
	}
	if cfg.Paths.APIBind != defaultAPIBind {
		t.Fatalf("APIBind = %q, want %q", cfg.Paths.APIBind, defaultAPIBind)
	}
	if !cfg.Admission.Enabled {
		t.Fatalf("Admission.Enabled = false, want true by default")
	}
	if cfg.Publish.Timeout != defaultPublishTimeout {
		t.Fatalf("Publish.Timeout = %d, want %d", cfg.Publish.Timeout, defaultPublishTimeout)
	}
}

func TestLoadParsesAndExpandsPaths(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	body := `
[paths]
working_dir = "` + filepath.Join(dir, "work") + `"
credential_dir = "` + filepath.Join(dir, "cookies") + `"
sound_dir = "` + filepath.Join(dir, "sounds") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"
api_bind = "127.0.0.1:0"

[publish]
timeout = 42

[admission]
enabled = false
`
	if err := os.WriteFile(cfgPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatalf("exists = false, want true")
	}
	if cfg.Publish.Timeout != 42 {
		t.Fatalf("Publish.Timeout = %d, want 42", cfg.Publish.Timeout)
	}
	if cfg.Admission.Enabled {
		t.Fatalf("Admission.Enabled = true, want false")
	}
	if !filepath.IsAbs(cfg.Paths.WorkingDir) {
		t.Fatalf("WorkingDir not absolute: %q", cfg.Paths.WorkingDir)
	}
}

func TestValidateRejectsSharedWorkingAndCredentialDir(t *testing.T) {
	cfg := Default()
	cfg.Paths.WorkingDir = "/tmp/clippub-same"
	cfg.Paths.CredentialDir = "/tmp/clippub-same"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "must differ") {
		t.Fatalf("Validate error = %v, want shared-dir rejection", err)
	}
}

func TestValidateRejectsBadLogFormat(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("Validate accepted logging.format=xml")
	}
}

func TestEnsureDirectoriesCreatesAll(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Paths.WorkingDir = filepath.Join(dir, "work")
	cfg.Paths.CredentialDir = filepath.Join(dir, "cookies")
	cfg.Paths.SoundDir = filepath.Join(dir, "sounds")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, p := range []string{cfg.Paths.WorkingDir, cfg.Paths.CredentialDir, cfg.Paths.SoundDir, cfg.Paths.LogDir} {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			t.Fatalf("directory %q missing after EnsureDirectories (err=%v)", p, err)
		}
	}
}

func TestCreateSampleWritesParseableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := Load(path); err != nil || !exists {
		t.Fatalf("Load(sample) exists=%v err=%v", exists, err)
	}
}
