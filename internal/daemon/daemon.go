package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"clippub/internal/admission"
	"clippub/internal/config"
	"clippub/internal/history"
	"clippub/internal/logging"
	"clippub/internal/orchestrator"
	"clippub/internal/session"
)

// orphanMaxAge is how old a leftover session directory must be before the
// startup sweep reclaims it. Young directories may belong to a job that was
// in flight when a previous process crashed moments ago.
const orphanMaxAge = time.Hour

// Daemon coordinates the publish service and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *history.Store
	gate     *admission.Controller
	sessions *session.Manager
	orch     *orchestrator.Orchestrator

	lockPath string
	lock     *flock.Flock

	api *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	Occupied      bool
	OccupiedSince time.Time
	WorkingDir    string
	HistoryDBPath string
	LockFilePath  string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *history.Store, gate *admission.Controller, sessions *session.Manager, orch *orchestrator.Orchestrator, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || gate == nil || sessions == nil || orch == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, gate, sessions, orchestrator, and logger")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "clippubd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		gate:     gate,
		sessions: sessions,
		orch:     orch,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the daemon lock, reclaims leftover state, and brings the
// HTTP interface up.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another clippub daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	if removed := d.sessions.SweepOrphans(orphanMaxAge); removed > 0 {
		d.logger.Info("startup sweep reclaimed orphaned sessions",
			logging.Int("count", removed),
		)
	}
	if pruned, err := d.store.Prune(d.ctx, d.cfg.History.RetentionDays); err != nil {
		d.logger.Warn("history prune failed", logging.Error(err))
	} else if pruned > 0 {
		d.logger.Info("history pruned", logging.Int64("removed", pruned))
	}

	if err := d.api.start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start api server: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("clippub daemon started",
		logging.String("lock", d.lockPath),
		logging.String("api", d.api.addr()),
	)
	return nil
}

// Stop shuts down the HTTP interface and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("clippub daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Addr reports the address the HTTP interface is listening on, or empty if
// the daemon is not running.
func (d *Daemon) Addr() string {
	if d.api == nil {
		return ""
	}
	return d.api.addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	occupied, since := d.gate.Occupied()
	return Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		Occupied:      occupied,
		OccupiedSince: since,
		WorkingDir:    d.cfg.Paths.WorkingDir,
		HistoryDBPath: d.store.Path(),
		LockFilePath:  d.lockPath,
	}
}
