// Package mediaprep stages the uploaded clip into a session's working area
// and optionally augments it with a sound from the configured library.
package mediaprep

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"clippub/internal/logging"
	"clippub/internal/media/ffprobe"
	"clippub/internal/services"
	"clippub/internal/services/ffmpeg"
	"clippub/internal/session"
	"clippub/internal/textutil"
)

const (
	stagedClipName = "clip.mp4"
	mixedClipName  = "clip-mixed.mp4"
	soundExtension = ".mp3"
)

// ClipInspector validates a staged clip before the pipeline continues. The
// default implementation shells out to ffprobe.
type ClipInspector func(ctx context.Context, path string) error

// Preparer implements media staging and augmentation for one session.
type Preparer struct {
	soundDir string
	mixer    ffmpeg.Mixer
	inspect  ClipInspector
	logger   *slog.Logger
}

// New constructs a preparer with the default ffprobe inspector.
func New(soundDir string, mixer ffmpeg.Mixer, logger *slog.Logger) *Preparer {
	return NewWithInspector(soundDir, mixer, defaultInspector, logger)
}

// NewWithInspector allows injecting the clip inspector (used in tests).
func NewWithInspector(soundDir string, mixer ffmpeg.Mixer, inspect ClipInspector, logger *slog.Logger) *Preparer {
	return &Preparer{
		soundDir: soundDir,
		mixer:    mixer,
		inspect:  inspect,
		logger:   logging.NewComponentLogger(logger, "media-preparer"),
	}
}

func defaultInspector(ctx context.Context, path string) error {
	result, err := ffprobe.Inspect(ctx, "", path)
	if err != nil {
		return err
	}
	if result.VideoStreamCount() == 0 {
		return fmt.Errorf("no video stream in %s", filepath.Base(path))
	}
	return nil
}

// Stage copies the inbound clip into the session's working directory under a
// fixed name and confirms it holds playable video. The returned path is owned
// by the session.
func (p *Preparer) Stage(ctx context.Context, sess *session.Session, source io.Reader) (string, error) {
	logger := logging.WithContext(ctx, p.logger)
	target := sess.Path(stagedClipName)

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("create staged clip: %w", err)
	}
	written, copyErr := io.Copy(out, source)
	closeErr := out.Close()
	if copyErr != nil {
		return "", fmt.Errorf("stage clip: %w", copyErr)
	}
	if closeErr != nil {
		return "", fmt.Errorf("stage clip: %w", closeErr)
	}
	sess.Register(target)

	if written == 0 {
		return "", services.Wrap(services.ErrValidation, "media", "stage", "uploaded clip is empty", nil)
	}
	if p.inspect != nil {
		if err := p.inspect(ctx, target); err != nil {
			return "", services.Wrap(services.ErrValidation, "media", "inspect", "uploaded clip is not playable video", err)
		}
	}

	logger.Debug("clip staged",
		logging.String("path", target),
		logging.Int64("bytes", written),
	)
	return target, nil
}

// Augment mixes the staged clip with the identified sound. There is no silent
// fallback: if the sound is missing or the mix fails, the job fails, because
// dropping a requested augmentation would not be what the caller asked for.
func (p *Preparer) Augment(ctx context.Context, sess *session.Session, clipPath, soundID string, mode ffmpeg.MixMode) (string, error) {
	logger := logging.WithContext(ctx, p.logger)

	token := textutil.SanitizeToken(soundID)
	if token == "" {
		return "", services.Wrap(services.ErrSoundNotFound, "media", "resolve sound", "sound identifier is empty", nil)
	}
	soundPath := filepath.Join(p.soundDir, token+soundExtension)
	if _, err := os.Stat(soundPath); err != nil {
		return "", services.Wrap(services.ErrSoundNotFound, "media", "resolve sound",
			fmt.Sprintf("no sound asset for id %s", token), nil)
	}

	outPath := sess.Path(mixedClipName)
	if err := p.mixer.Mix(ctx, clipPath, soundPath, outPath, mode); err != nil {
		return "", services.Wrap(services.ErrMixFailed, "media", "mix",
			fmt.Sprintf("mixing sound %s (%s mode) failed", token, mode), err)
	}
	sess.Register(outPath)

	logger.Info("clip augmented",
		logging.String("sound_id", token),
		logging.String("mode", string(mode)),
		logging.String("path", outPath),
	)
	return outPath, nil
}
