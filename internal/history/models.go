package history

import "time"

// Job outcomes as stored in the database.
const (
	OutcomePublished = "published"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
)

// Record is one finished publish job.
type Record struct {
	ID          string
	Account     string
	Description string
	SoundID     string
	MixMode     string
	// Schedule is the caller-requested schedule, recorded for operators;
	// publishing itself is always immediate.
	Schedule    string
	Outcome     string
	ErrorClass  string
	Detail      string
	SessionID   string
	SubmittedAt time.Time
	FinishedAt  time.Time
}

// Duration reports how long the job ran.
func (r Record) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.SubmittedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.SubmittedAt)
}
