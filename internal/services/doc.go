// Package services provides shared plumbing for pipeline components: the
// failure taxonomy with its sentinel markers, and context annotation helpers
// for job-scoped logging.
//
// Subpackages hold clients for external collaborators (the browser publish
// driver, the ffmpeg mixer).
package services
