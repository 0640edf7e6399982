package orchestrator

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"clippub/internal/admission"
	"clippub/internal/config"
	"clippub/internal/credentials"
	"clippub/internal/history"
	"clippub/internal/logging"
	"clippub/internal/mediaprep"
	"clippub/internal/publisher"
	"clippub/internal/services"
	"clippub/internal/services/ffmpeg"
	"clippub/internal/session"
	"clippub/internal/testsupport"
)

const cookieBody = ".tiktok.com\tTRUE\t/\tTRUE\t0\tsessionid\tabc123\n"

type stubRunner struct {
	mu          sync.Mutex
	err         error
	calls       int
	description string
	headless    bool
	sessionDir  string
	block       chan struct{}
	started     chan struct{}
	startOnce   sync.Once
}

func (r *stubRunner) Run(ctx context.Context, sess *session.Session, clipPath, description string, cred *credentials.Credential, opts publisher.ExecutionOptions) error {
	r.mu.Lock()
	r.calls++
	r.description = description
	r.headless = opts.Headless
	r.sessionDir = sess.Dir
	r.mu.Unlock()
	if r.started != nil {
		r.startOnce.Do(func() { close(r.started) })
	}
	if r.block != nil {
		<-r.block
	}
	return r.err
}

type stubMixer struct {
	err   error
	calls int
}

func (m *stubMixer) Mix(ctx context.Context, clipPath, audioPath, outPath string, mode ffmpeg.MixMode) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	return os.WriteFile(outPath, []byte("mixed"), 0o644)
}

type memoryRecorder struct {
	mu      sync.Mutex
	records []history.Record
}

func (r *memoryRecorder) Record(ctx context.Context, rec history.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *memoryRecorder) last(t *testing.T) history.Record {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.records) == 0 {
		t.Fatal("no history records")
	}
	return r.records[len(r.records)-1]
}

type fixture struct {
	cfg      *config.Config
	orch     *Orchestrator
	runner   Runner
	mixer    *stubMixer
	recorder *memoryRecorder
	gate     *admission.Controller
}

func newFixture(t *testing.T, runner Runner) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	logger := logging.NewNop()
	mixer := &stubMixer{}
	recorder := &memoryRecorder{}
	gate := admission.New(true)

	preparer := mediaprep.NewWithInspector(cfg.Paths.SoundDir, mixer,
		func(ctx context.Context, path string) error { return nil }, logger)

	orch := New(
		credentials.NewStore(cfg.Paths.CredentialDir),
		gate,
		session.NewManager(cfg.Paths.WorkingDir, logger),
		preparer,
		runner,
		recorder,
		cfg.Publish.Headless,
		logger,
	)
	return &fixture{cfg: cfg, orch: orch, runner: runner, mixer: mixer, recorder: recorder, gate: gate}
}

func (f *fixture) workdirEntries(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(f.cfg.Paths.WorkingDir)
	if err != nil {
		t.Fatalf("read working dir: %v", err)
	}
	return len(entries)
}

func TestSubmitPublishes(t *testing.T) {
	runner := &stubRunner{}
	f := newFixture(t, runner)
	testsupport.WriteCredential(t, f.cfg, "demo", cookieBody)

	out, err := f.orch.Submit(context.Background(), Request{
		Account:     "demo",
		Video:       strings.NewReader("clip-bytes"),
		Description: "my clip",
		Hashtags:    "funny, dance",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if out.JobID == "" || out.SessionID == "" {
		t.Fatalf("outcome missing ids: %+v", out)
	}
	if out.Account != "demo" {
		t.Fatalf("Account = %q", out.Account)
	}
	if runner.description != "my clip #funny #dance" {
		t.Fatalf("description = %q", runner.description)
	}
	if !runner.headless {
		t.Fatal("configured headless default not forwarded")
	}
	if f.workdirEntries(t) != 0 {
		t.Fatal("session directory not cleaned up after success")
	}
	rec := f.recorder.last(t)
	if rec.Outcome != history.OutcomePublished || rec.SessionID != out.SessionID {
		t.Fatalf("history record = %+v", rec)
	}
}

func TestSubmitCredentialFailureCommitsNothing(t *testing.T) {
	f := newFixture(t, &stubRunner{})

	_, err := f.orch.Submit(context.Background(), Request{
		Account: "ghost",
		Video:   strings.NewReader("clip"),
	})
	if !errors.Is(err, services.ErrCredentialNotFound) {
		t.Fatalf("err = %v, want ErrCredentialNotFound", err)
	}
	if f.workdirEntries(t) != 0 {
		t.Fatal("working directory touched before validation passed")
	}
	if occupied, _ := f.gate.Occupied(); occupied {
		t.Fatal("admission slot consumed by rejected job")
	}
	rec := f.recorder.last(t)
	if rec.Outcome != history.OutcomeRejected || rec.ErrorClass != "credential_not_found" {
		t.Fatalf("history record = %+v", rec)
	}
}

func TestSubmitSecondJobGetsBusy(t *testing.T) {
	runner := &stubRunner{block: make(chan struct{}), started: make(chan struct{})}
	f := newFixture(t, runner)
	testsupport.WriteCredential(t, f.cfg, "demo", cookieBody)

	firstDone := make(chan error, 1)
	go func() {
		_, err := f.orch.Submit(context.Background(), Request{
			Account: "demo",
			Video:   strings.NewReader("clip"),
		})
		firstDone <- err
	}()
	<-runner.started

	_, err := f.orch.Submit(context.Background(), Request{
		Account: "demo",
		Video:   strings.NewReader("clip"),
	})
	if !errors.Is(err, services.ErrBusy) {
		t.Fatalf("second Submit err = %v, want ErrBusy", err)
	}

	close(runner.block)
	if err := <-firstDone; err != nil {
		t.Fatalf("first Submit: %v", err)
	}

	// Slot must be free again after the first job finished.
	if _, err := f.orch.Submit(context.Background(), Request{
		Account: "demo",
		Video:   strings.NewReader("clip"),
	}); err != nil {
		t.Fatalf("Submit after release: %v", err)
	}
}

func TestSubmitSoundNotFoundCleansUp(t *testing.T) {
	f := newFixture(t, &stubRunner{})
	testsupport.WriteCredential(t, f.cfg, "demo", cookieBody)

	_, err := f.orch.Submit(context.Background(), Request{
		Account: "demo",
		Video:   strings.NewReader("clip"),
		SoundID: "missing-track",
	})
	if !errors.Is(err, services.ErrSoundNotFound) {
		t.Fatalf("err = %v, want ErrSoundNotFound", err)
	}
	if f.mixer.calls != 0 {
		t.Fatal("mixer invoked for missing sound")
	}
	if f.workdirEntries(t) != 0 {
		t.Fatal("session directory not cleaned up after sound failure")
	}
	if occupied, _ := f.gate.Occupied(); occupied {
		t.Fatal("admission slot leaked")
	}
}

func TestSubmitAugmentsWhenSoundPresent(t *testing.T) {
	runner := &stubRunner{}
	f := newFixture(t, runner)
	testsupport.WriteCredential(t, f.cfg, "demo", cookieBody)
	testsupport.WriteSound(t, f.cfg, "track-1")

	_, err := f.orch.Submit(context.Background(), Request{
		Account: "demo",
		Video:   strings.NewReader("clip"),
		SoundID: "track-1",
		MixMode: "replace",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if f.mixer.calls != 1 {
		t.Fatalf("mixer calls = %d, want 1", f.mixer.calls)
	}
}

func TestSubmitInvalidMixModeRejected(t *testing.T) {
	f := newFixture(t, &stubRunner{})
	testsupport.WriteCredential(t, f.cfg, "demo", cookieBody)

	_, err := f.orch.Submit(context.Background(), Request{
		Account: "demo",
		Video:   strings.NewReader("clip"),
		SoundID: "track-1",
		MixMode: "loudest",
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if f.workdirEntries(t) != 0 {
		t.Fatal("working directory touched for invalid request")
	}
}

func TestSubmitDriverFailureCleansUpAndRecords(t *testing.T) {
	runner := &stubRunner{err: services.Wrap(services.ErrDriver, "publish", "run", "", errors.New("boom"))}
	f := newFixture(t, runner)
	testsupport.WriteCredential(t, f.cfg, "demo", cookieBody)

	_, err := f.orch.Submit(context.Background(), Request{
		Account: "demo",
		Video:   strings.NewReader("clip"),
	})
	if !errors.Is(err, services.ErrDriver) {
		t.Fatalf("err = %v, want ErrDriver", err)
	}
	if f.workdirEntries(t) != 0 {
		t.Fatal("session directory not cleaned up after driver failure")
	}
	if occupied, _ := f.gate.Occupied(); occupied {
		t.Fatal("admission slot leaked after driver failure")
	}
	rec := f.recorder.last(t)
	if rec.Outcome != history.OutcomeFailed || rec.ErrorClass != "driver_error" {
		t.Fatalf("history record = %+v", rec)
	}
}

func TestSubmitEmptyClipRejected(t *testing.T) {
	f := newFixture(t, &stubRunner{})
	testsupport.WriteCredential(t, f.cfg, "demo", cookieBody)

	_, err := f.orch.Submit(context.Background(), Request{
		Account: "demo",
		Video:   strings.NewReader(""),
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if f.workdirEntries(t) != 0 {
		t.Fatal("session directory not cleaned up after staging rejection")
	}
}

func TestSubmitHeadlessOverride(t *testing.T) {
	runner := &stubRunner{}
	f := newFixture(t, runner)
	testsupport.WriteCredential(t, f.cfg, "demo", cookieBody)

	headful := false
	_, err := f.orch.Submit(context.Background(), Request{
		Account:  "demo",
		Video:    strings.NewReader("clip"),
		Headless: &headful,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if runner.headless {
		t.Fatal("per-request headless override ignored")
	}
}

func TestSubmitReleasesSlotOnPanic(t *testing.T) {
	runner := &panicRunner{}
	f := newFixture(t, runner)
	testsupport.WriteCredential(t, f.cfg, "demo", cookieBody)

	_, err := f.orch.Submit(context.Background(), Request{
		Account: "demo",
		Video:   strings.NewReader("clip"),
	})
	if !errors.Is(err, services.ErrDriver) {
		t.Fatalf("err = %v, want ErrDriver", err)
	}
	if occupied, _ := f.gate.Occupied(); occupied {
		t.Fatal("admission slot leaked after panic")
	}
	if f.workdirEntries(t) != 0 {
		t.Fatal("session directory not cleaned up after panic")
	}

	deadline := time.Now().Add(time.Second)
	for {
		if _, err := f.gate.TryAcquire(); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("slot never became available again")
		}
	}
}

type panicRunner struct{}

func (panicRunner) Run(ctx context.Context, sess *session.Session, clipPath, description string, cred *credentials.Credential, opts publisher.ExecutionOptions) error {
	panic("driver exploded")
}
