// Package orchestrator sequences one publish job end to end: credential
// validation, admission, session allocation, media staging, optional sound
// augmentation, browser publish, and history recording. It owns the ordering
// guarantees: no expensive resource is committed before cheap validation has
// passed, and everything acquired is released on every exit path.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"clippub/internal/admission"
	"clippub/internal/credentials"
	"clippub/internal/history"
	"clippub/internal/logging"
	"clippub/internal/mediaprep"
	"clippub/internal/publisher"
	"clippub/internal/services"
	"clippub/internal/services/ffmpeg"
	"clippub/internal/session"
	"clippub/internal/textutil"
)

// Request is one publish submission.
type Request struct {
	Account     string
	Video       io.Reader
	Description string
	// Hashtags is a free-form comma or space separated tag list; it is
	// normalized and appended to the description.
	Hashtags string
	// SoundID names an asset in the sound library; empty skips augmentation.
	SoundID string
	// MixMode selects how the sound is combined with the clip's own audio.
	// Empty means the default mode.
	MixMode string
	// Schedule is carried for the caller's benefit only; publishing always
	// happens immediately.
	Schedule string
	// Headless overrides the configured browser visibility when non-nil.
	Headless *bool
}

// Outcome summarizes a successful publish.
type Outcome struct {
	JobID       string
	SessionID   string
	Account     string
	Description string
	Elapsed     time.Duration
}

// Runner executes the browser publish step. *publisher.Executor satisfies it.
type Runner interface {
	Run(ctx context.Context, sess *session.Session, clipPath, description string, cred *credentials.Credential, opts publisher.ExecutionOptions) error
}

// Recorder persists finished jobs. *history.Store satisfies it; a nil recorder
// disables history.
type Recorder interface {
	Record(ctx context.Context, rec history.Record) error
}

// Orchestrator wires the pipeline collaborators together.
type Orchestrator struct {
	credentials     *credentials.Store
	gate            *admission.Controller
	sessions        *session.Manager
	preparer        *mediaprep.Preparer
	runner          Runner
	recorder        Recorder
	defaultHeadless bool
	logger          *slog.Logger
}

// New constructs an orchestrator. recorder may be nil.
func New(
	creds *credentials.Store,
	gate *admission.Controller,
	sessions *session.Manager,
	preparer *mediaprep.Preparer,
	runner Runner,
	recorder Recorder,
	defaultHeadless bool,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		credentials:     creds,
		gate:            gate,
		sessions:        sessions,
		preparer:        preparer,
		runner:          runner,
		recorder:        recorder,
		defaultHeadless: defaultHeadless,
		logger:          logging.NewComponentLogger(logger, "orchestrator"),
	}
}

// Submit runs one job to completion. The error, when non-nil, carries the
// failure class marker the API layer maps to a status code.
func (o *Orchestrator) Submit(ctx context.Context, req Request) (out Outcome, err error) {
	jobID := uuid.NewString()
	submitted := time.Now()

	ctx = services.WithJobID(ctx, jobID)
	ctx = services.WithAccount(ctx, req.Account)
	logger := logging.WithContext(ctx, o.logger)

	description := textutil.AppendHashtags(req.Description, req.Hashtags)

	var mode ffmpeg.MixMode
	if req.SoundID != "" {
		mode, err = ffmpeg.ParseMixMode(req.MixMode)
		if err != nil {
			err = services.Wrap(services.ErrValidation, "submit", "parse mix mode", "", err)
			o.record(ctx, jobID, req, description, "", submitted, err)
			return Outcome{}, err
		}
	}

	if req.Schedule != "" {
		logger.Info("schedule requested; publishing immediately",
			logging.String("schedule", req.Schedule),
		)
	}

	// Cheap validation happens before any resource is committed: a bad
	// account must never consume the admission slot or touch the disk.
	cred, err := o.credentials.Validate(req.Account)
	if err != nil {
		o.record(ctx, jobID, req, description, "", submitted, err)
		return Outcome{}, err
	}

	token, err := o.gate.TryAcquire()
	if err != nil {
		o.record(ctx, jobID, req, description, "", submitted, err)
		return Outcome{}, err
	}

	sessionID := ""
	defer func() {
		if r := recover(); r != nil {
			err = services.Wrap(services.ErrDriver, "submit", "run",
				fmt.Sprintf("job panicked: %v", r), nil)
		}
		o.record(ctx, jobID, req, description, sessionID, submitted, err)
	}()
	defer o.gate.Release(token)

	sess, err := o.sessions.Open()
	if err != nil {
		return Outcome{}, services.Wrap(services.ErrDriver, "submit", "open session", "", err)
	}
	sessionID = sess.ID
	defer o.sessions.Close(sess)

	logger.Info("job admitted",
		logging.String("session_id", sess.ID),
		logging.String("sound_id", req.SoundID),
	)

	clipPath, err := o.preparer.Stage(ctx, sess, req.Video)
	if err != nil {
		return Outcome{}, err
	}

	if req.SoundID != "" {
		clipPath, err = o.preparer.Augment(ctx, sess, clipPath, req.SoundID, mode)
		if err != nil {
			return Outcome{}, err
		}
	}

	headless := o.defaultHeadless
	if req.Headless != nil {
		headless = *req.Headless
	}
	if err = o.runner.Run(ctx, sess, clipPath, description, cred, publisher.ExecutionOptions{Headless: headless}); err != nil {
		return Outcome{}, err
	}

	elapsed := time.Since(submitted)
	logger.Info("job published",
		logging.String("session_id", sess.ID),
		logging.Duration("elapsed", elapsed),
	)
	return Outcome{
		JobID:       jobID,
		SessionID:   sess.ID,
		Account:     cred.Account,
		Description: description,
		Elapsed:     elapsed,
	}, nil
}

// record persists the job outcome. History failures are logged, never
// propagated: the job result already happened and must not be masked.
func (o *Orchestrator) record(ctx context.Context, jobID string, req Request, description, sessionID string, submitted time.Time, jobErr error) {
	if o.recorder == nil {
		return
	}
	rec := history.Record{
		ID:          jobID,
		Account:     req.Account,
		Description: description,
		SoundID:     req.SoundID,
		MixMode:     req.MixMode,
		Schedule:    req.Schedule,
		SessionID:   sessionID,
		SubmittedAt: submitted,
		FinishedAt:  time.Now(),
	}
	switch {
	case jobErr == nil:
		rec.Outcome = history.OutcomePublished
	case services.HTTPStatus(jobErr) < 500:
		rec.Outcome = history.OutcomeRejected
		rec.ErrorClass = services.Classify(jobErr)
		rec.Detail = jobErr.Error()
	default:
		rec.Outcome = history.OutcomeFailed
		rec.ErrorClass = services.Classify(jobErr)
		rec.Detail = jobErr.Error()
	}
	if err := o.recorder.Record(ctx, rec); err != nil {
		logging.WithContext(ctx, o.logger).Warn("history record failed", logging.Error(err))
	}
}
