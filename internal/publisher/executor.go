// Package publisher runs the browser publish step off the request-handling
// path and interprets the driver's outcome. It owns the per-job deadline:
// a driver call that overruns it is a driver failure like any other.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"clippub/internal/credentials"
	"clippub/internal/logging"
	"clippub/internal/services"
	"clippub/internal/services/tikdriver"
	"clippub/internal/session"
)

// Driver is the call contract the executor needs from the publish
// collaborator. *tikdriver.Driver satisfies it; tests substitute stubs.
type Driver interface {
	Publish(ctx context.Context, req tikdriver.Request) error
}

// ExecutionOptions carries the per-request knobs for one publish run.
type ExecutionOptions struct {
	Headless bool
}

// Executor invokes the publish driver with session-scoped isolation.
type Executor struct {
	driver  Driver
	timeout time.Duration
	logger  *slog.Logger
}

// New constructs an executor with the given overall publish deadline.
func New(driver Driver, timeout time.Duration, logger *slog.Logger) *Executor {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Executor{
		driver:  driver,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "publish-executor"),
	}
}

// Run drives one publish attempt. The driver call runs on its own goroutine
// with a deadline; the caller blocks for this job's result but the process
// keeps serving unrelated requests. There is no retry: driver failures are
// usually account or UI state problems a blind retry would only repeat, at
// the cost of holding the admission slot longer.
func (e *Executor) Run(ctx context.Context, sess *session.Session, clipPath, description string, cred *credentials.Credential, opts ExecutionOptions) error {
	logger := logging.WithContext(ctx, e.logger)

	profileDir, err := sess.EnsureDir("profile")
	if err != nil {
		return services.Wrap(services.ErrDriver, "publish", "prepare profile", "", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req := tikdriver.Request{
		ClipPath:    clipPath,
		Description: description,
		Cookies:     cred.Cookies,
		ProfileDir:  profileDir,
		Headless:    opts.Headless,
	}

	start := time.Now()
	logger.Info("publish started",
		logging.String("clip", clipPath),
		logging.Bool("headless", opts.Headless),
		logging.Duration("deadline", e.timeout),
	)

	result := make(chan error, 1)
	go func() {
		result <- e.driver.Publish(runCtx, req)
	}()

	select {
	case err := <-result:
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return services.Wrap(services.ErrDriver, "publish", "run",
					"publish session exceeded deadline", err)
			}
			return services.Wrap(services.ErrDriver, "publish", "run", "", err)
		}
		logger.Info("publish succeeded", logging.Duration("elapsed", time.Since(start)))
		return nil
	case <-runCtx.Done():
		// The driver goroutine unwinds on its own once the browser context
		// dies; the job result must not wait for that.
		return services.Wrap(services.ErrDriver, "publish", "run",
			"publish session exceeded deadline", runCtx.Err())
	}
}
