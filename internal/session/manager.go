// Package session owns the ephemeral working area for one in-flight publish
// job: an exclusively-owned directory under the configured working root that
// is created at job start and removed on every exit path.
package session

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"clippub/internal/logging"
)

// Session is the set of ephemeral resources owned by one job. All registered
// paths live under Dir, so removing Dir reclaims everything.
type Session struct {
	ID  string
	Dir string

	mu     sync.Mutex
	files  []string
	closed bool
}

// Register records a file or directory created on the session's behalf.
// Registration is bookkeeping for status introspection; cleanup removes the
// whole directory regardless.
func (s *Session) Register(path string) {
	if s == nil || path == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = append(s.files, path)
}

// Files returns a copy of the registered paths in creation order.
func (s *Session) Files() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.files))
	copy(out, s.files)
	return out
}

// Path joins elem onto the session directory.
func (s *Session) Path(elem ...string) string {
	parts := append([]string{s.Dir}, elem...)
	return filepath.Join(parts...)
}

// EnsureDir creates (if needed) and returns a named subdirectory of the
// session, registering it. Used for the browser profile area.
func (s *Session) EnsureDir(name string) (string, error) {
	dir := s.Path(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create session subdirectory %q: %w", name, err)
	}
	s.Register(dir)
	return dir, nil
}

// Manager allocates and tears down per-job working areas under a single root.
type Manager struct {
	root   string
	logger *slog.Logger
}

// NewManager constructs a session manager rooted at dir.
func NewManager(root string, logger *slog.Logger) *Manager {
	return &Manager{
		root:   root,
		logger: logging.NewComponentLogger(logger, "session-manager"),
	}
}

// Open allocates a collision-resistant session identifier and creates its
// exclusively-owned working directory. The timestamp prefix keeps directory
// listings in rough job order for debugging.
func (m *Manager) Open() (*Session, error) {
	if err := os.MkdirAll(m.root, 0o755); err != nil {
		return nil, fmt.Errorf("create working root: %w", err)
	}

	id := fmt.Sprintf("%s-%s", time.Now().UTC().Format("20060102T150405"), uuid.NewString())
	dir := filepath.Join(m.root, id)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}

	m.logger.Debug("session opened",
		logging.String("session_id", id),
		logging.String("dir", dir),
	)
	return &Session{ID: id, Dir: dir}, nil
}

// Close removes the session's working directory and everything in it. It is
// idempotent and never fails the caller: a partially or fully removed
// directory is already the desired end state, and cleanup problems must not
// mask the job outcome. Failures are logged and the directory is left for the
// orphan sweep.
func (m *Manager) Close(s *Session) {
	if s == nil {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	if err := os.RemoveAll(s.Dir); err != nil {
		m.logger.Warn("session cleanup failed; directory left for orphan sweep",
			logging.String("session_id", s.ID),
			logging.String("dir", s.Dir),
			logging.Error(err),
		)
		return
	}
	m.logger.Debug("session closed",
		logging.String("session_id", s.ID),
	)
}

// SweepOrphans removes session directories older than maxAge left behind by
// crashed runs. Crash recovery cannot rely on Close having run, so this is a
// best-effort pass at startup. Returns the number of directories removed.
func (m *Manager) SweepOrphans(maxAge time.Duration) int {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		return 0
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		dir := filepath.Join(m.root, entry.Name())
		if err := os.RemoveAll(dir); err != nil {
			m.logger.Warn("orphan sweep failed for directory",
				logging.String("dir", dir),
				logging.Error(err),
			)
			continue
		}
		removed++
	}
	if removed > 0 {
		m.logger.Info("orphaned sessions reclaimed",
			logging.Int("count", removed),
			logging.String("root", m.root),
		)
	}
	return removed
}
