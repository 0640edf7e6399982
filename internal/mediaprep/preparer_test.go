package mediaprep

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clippub/internal/logging"
	"clippub/internal/services"
	"clippub/internal/services/ffmpeg"
	"clippub/internal/session"
)

func noopInspector(context.Context, string) error { return nil }

type fakeMixer struct {
	err    error
	called bool
	mode   ffmpeg.MixMode
}

func (m *fakeMixer) Mix(_ context.Context, clipPath, audioPath, outPath string, mode ffmpeg.MixMode) error {
	m.called = true
	m.mode = mode
	if m.err != nil {
		return m.err
	}
	return os.WriteFile(outPath, []byte("mixed"), 0o644)
}

func openSession(t *testing.T) (*session.Manager, *session.Session) {
	t.Helper()
	mgr := session.NewManager(t.TempDir(), logging.NewNop())
	sess, err := mgr.Open()
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	t.Cleanup(func() { mgr.Close(sess) })
	return mgr, sess
}

func TestStageCopiesClipIntoSession(t *testing.T) {
	_, sess := openSession(t)
	p := NewWithInspector(t.TempDir(), &fakeMixer{}, noopInspector, logging.NewNop())

	path, err := p.Stage(context.Background(), sess, strings.NewReader("video-bytes"))
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if filepath.Dir(path) != sess.Dir {
		t.Fatalf("staged clip %q outside session dir %q", path, sess.Dir)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "video-bytes" {
		t.Fatalf("staged clip content = %q err=%v", data, err)
	}
	if files := sess.Files(); len(files) != 1 {
		t.Fatalf("session files = %v, want staged clip only", files)
	}
}

func TestStageRejectsEmptyUpload(t *testing.T) {
	_, sess := openSession(t)
	p := NewWithInspector(t.TempDir(), &fakeMixer{}, noopInspector, logging.NewNop())

	_, err := p.Stage(context.Background(), sess, strings.NewReader(""))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestStageRejectsUnplayableClip(t *testing.T) {
	_, sess := openSession(t)
	inspect := func(context.Context, string) error { return errors.New("no video stream") }
	p := NewWithInspector(t.TempDir(), &fakeMixer{}, inspect, logging.NewNop())

	_, err := p.Stage(context.Background(), sess, strings.NewReader("not-a-video"))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestAugmentMissingSound(t *testing.T) {
	_, sess := openSession(t)
	mixer := &fakeMixer{}
	p := NewWithInspector(t.TempDir(), mixer, noopInspector, logging.NewNop())

	clip, err := p.Stage(context.Background(), sess, strings.NewReader("video"))
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	_, err = p.Augment(context.Background(), sess, clip, "missing-sound", ffmpeg.MixModeMix)
	if !errors.Is(err, services.ErrSoundNotFound) {
		t.Fatalf("err = %v, want ErrSoundNotFound", err)
	}
	if mixer.called {
		t.Fatalf("mixer invoked despite missing sound")
	}
}

func TestAugmentMixFailureDoesNotFallBack(t *testing.T) {
	_, sess := openSession(t)
	soundDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(soundDir, "beat.mp3"), []byte("audio"), 0o644); err != nil {
		t.Fatalf("write sound: %v", err)
	}
	mixer := &fakeMixer{err: errors.New("codec exploded")}
	p := NewWithInspector(soundDir, mixer, noopInspector, logging.NewNop())

	clip, err := p.Stage(context.Background(), sess, strings.NewReader("video"))
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	path, err := p.Augment(context.Background(), sess, clip, "beat", ffmpeg.MixModeReplace)
	if !errors.Is(err, services.ErrMixFailed) {
		t.Fatalf("err = %v, want ErrMixFailed", err)
	}
	if path != "" {
		t.Fatalf("Augment returned path %q on failure", path)
	}
}

func TestAugmentSuccessRegistersMixedClip(t *testing.T) {
	_, sess := openSession(t)
	soundDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(soundDir, "beat.mp3"), []byte("audio"), 0o644); err != nil {
		t.Fatalf("write sound: %v", err)
	}
	mixer := &fakeMixer{}
	p := NewWithInspector(soundDir, mixer, noopInspector, logging.NewNop())

	clip, err := p.Stage(context.Background(), sess, strings.NewReader("video"))
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	mixed, err := p.Augment(context.Background(), sess, clip, "beat", ffmpeg.MixModeMix)
	if err != nil {
		t.Fatalf("Augment: %v", err)
	}
	if mixer.mode != ffmpeg.MixModeMix {
		t.Fatalf("mixer mode = %v, want mix", mixer.mode)
	}
	if filepath.Dir(mixed) != sess.Dir {
		t.Fatalf("mixed clip %q outside session dir", mixed)
	}
	files := sess.Files()
	if len(files) != 2 || files[1] != mixed {
		t.Fatalf("session files = %v, want staged + mixed", files)
	}
}
