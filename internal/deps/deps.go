// Package deps reports the availability of external binaries the publish
// pipeline shells out to. The daemon logs a snapshot at startup so a missing
// tool is visible before the first job fails on it.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"clippub/internal/config"
)

// Requirement defines an external dependency the pipeline relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements returns the external binaries for the given configuration.
// The browser is optional: when unset, the driver's launcher resolves a
// managed browser on its own.
func Requirements(cfg *config.Config) []Requirement {
	reqs := []Requirement{
		{
			Name:        "ffmpeg",
			Command:     cfg.Mixer.FFmpegBinary,
			Description: "sound augmentation",
		},
		{
			Name:        "ffprobe",
			Command:     "ffprobe",
			Description: "clip inspection",
		},
	}
	if strings.TrimSpace(cfg.Publish.BrowserBinary) != "" {
		reqs = append(reqs, Requirement{
			Name:        "browser",
			Command:     cfg.Publish.BrowserBinary,
			Description: "publish driver",
			Optional:    true,
		})
	}
	return reqs
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}
