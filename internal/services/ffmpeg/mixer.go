// Package ffmpeg wraps the ffmpeg binary as the audio-mixing collaborator.
// The pipeline only depends on the Mixer contract; the command construction
// here is the entire integration surface.
package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// MixMode selects how the overlay audio is combined with the clip's own track.
type MixMode string

const (
	// MixModeMix blends the overlay with the clip's existing audio.
	MixModeMix MixMode = "mix"
	// MixModeReplace discards the clip's audio in favor of the overlay.
	MixModeReplace MixMode = "replace"
)

// ParseMixMode normalizes a request-supplied mode string. Empty input selects
// MixModeMix, matching the submit endpoint's documented default.
func ParseMixMode(value string) (MixMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(MixModeMix):
		return MixModeMix, nil
	case string(MixModeReplace):
		return MixModeReplace, nil
	default:
		return "", fmt.Errorf("unknown mix mode %q", value)
	}
}

// Mixer combines a video clip with an overlay audio file.
type Mixer interface {
	Mix(ctx context.Context, clipPath, audioPath, outPath string, mode MixMode) error
}

// CommandMixer shells out to ffmpeg.
type CommandMixer struct {
	binary  string
	timeout time.Duration
}

// NewCommandMixer constructs a mixer using the given ffmpeg binary and
// per-invocation deadline.
func NewCommandMixer(binary string, timeout time.Duration) *CommandMixer {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &CommandMixer{binary: binary, timeout: timeout}
}

// Mix renders outPath from clipPath and audioPath under the requested mode.
func (m *CommandMixer) Mix(ctx context.Context, clipPath, audioPath, outPath string, mode MixMode) error {
	if clipPath == "" || audioPath == "" || outPath == "" {
		return errors.New("ffmpeg mix: clip, audio, and output paths are required")
	}

	args, err := mixArgs(clipPath, audioPath, outPath, mode)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, m.binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("ffmpeg mix timed out after %s", m.timeout)
		}
		return fmt.Errorf("ffmpeg mix: %w: %s", err, tail(string(output), 400))
	}
	return nil
}

func mixArgs(clipPath, audioPath, outPath string, mode MixMode) ([]string, error) {
	switch mode {
	case MixModeReplace:
		return []string{
			"-y", "-hide_banner", "-loglevel", "error",
			"-i", clipPath,
			"-i", audioPath,
			"-map", "0:v:0", "-map", "1:a:0",
			"-c:v", "copy",
			"-shortest",
			outPath,
		}, nil
	case MixModeMix:
		return []string{
			"-y", "-hide_banner", "-loglevel", "error",
			"-i", clipPath,
			"-i", audioPath,
			"-filter_complex", "[0:a][1:a]amix=inputs=2:duration=first[aout]",
			"-map", "0:v:0", "-map", "[aout]",
			"-c:v", "copy",
			outPath,
		}, nil
	default:
		return nil, fmt.Errorf("unknown mix mode %q", mode)
	}
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
