package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"clippub/internal/logging"
)

func TestOpenCreatesExclusiveDirectories(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "work"), logging.NewNop())

	first, err := m.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	second, err := m.Open()
	if err != nil {
		t.Fatalf("Open second: %v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("session IDs collided: %s", first.ID)
	}
	if first.Dir == second.Dir {
		t.Fatalf("session dirs collided: %s", first.Dir)
	}
	for _, s := range []*Session{first, second} {
		info, err := os.Stat(s.Dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("session dir %q missing (err=%v)", s.Dir, err)
		}
	}
}

func TestCloseRemovesDirectoryAndIsIdempotent(t *testing.T) {
	m := NewManager(t.TempDir(), logging.NewNop())
	s, err := m.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := os.WriteFile(s.Path("clip.mp4"), []byte("data"), 0o644); err != nil {
		t.Fatalf("write clip: %v", err)
	}

	m.Close(s)
	if _, err := os.Stat(s.Dir); !os.IsNotExist(err) {
		t.Fatalf("session dir still exists after Close (err=%v)", err)
	}

	// Second close must not panic or error even though the dir is gone.
	m.Close(s)
}

func TestCloseToleratesAlreadyRemovedDirectory(t *testing.T) {
	m := NewManager(t.TempDir(), logging.NewNop())
	s, err := m.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := os.RemoveAll(s.Dir); err != nil {
		t.Fatalf("pre-remove: %v", err)
	}
	m.Close(s)
}

func TestEnsureDirRegistersPath(t *testing.T) {
	m := NewManager(t.TempDir(), logging.NewNop())
	s, err := m.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer m.Close(s)

	dir, err := s.EnsureDir("profile")
	if err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	if filepath.Dir(dir) != s.Dir {
		t.Fatalf("profile dir %q not under session dir %q", dir, s.Dir)
	}
	files := s.Files()
	if len(files) != 1 || files[0] != dir {
		t.Fatalf("Files() = %v, want [%s]", files, dir)
	}
}

func TestSweepOrphansRemovesOnlyStaleDirs(t *testing.T) {
	root := t.TempDir()
	m := NewManager(root, logging.NewNop())

	stale := filepath.Join(root, "20200101T000000-dead")
	fresh := filepath.Join(root, "20990101T000000-live")
	for _, dir := range []string{stale, fresh} {
		if err := os.Mkdir(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	if removed := m.SweepOrphans(24 * time.Hour); removed != 1 {
		t.Fatalf("SweepOrphans removed %d, want 1", removed)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("stale dir still present")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("fresh dir removed: %v", err)
	}
}
