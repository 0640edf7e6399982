package api

import "time"

// SubmitResponse is returned when a publish job completes successfully.
type SubmitResponse struct {
	JobID          string  `json:"job_id"`
	SessionID      string  `json:"session_id"`
	Account        string  `json:"account"`
	Description    string  `json:"description"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

// ErrorResponse is the body for every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
	Class string `json:"class"`
}

// HealthResponse reports daemon liveness.
type HealthResponse struct {
	Status string `json:"status"`
}

// StatusResponse reports daemon runtime information.
type StatusResponse struct {
	Running       bool      `json:"running"`
	PID           int       `json:"pid"`
	Occupied      bool      `json:"occupied"`
	OccupiedSince time.Time `json:"occupied_since,omitempty"`
	WorkingDir    string    `json:"working_dir"`
	HistoryDBPath string    `json:"history_db_path"`
	LockFilePath  string    `json:"lock_file_path"`
}

// JobRecord is one finished publish job as reported by the API.
type JobRecord struct {
	ID          string    `json:"id"`
	Account     string    `json:"account"`
	Description string    `json:"description"`
	SoundID     string    `json:"sound_id,omitempty"`
	MixMode     string    `json:"mix_mode,omitempty"`
	Schedule    string    `json:"schedule,omitempty"`
	Outcome     string    `json:"outcome"`
	ErrorClass  string    `json:"error_class,omitempty"`
	Detail      string    `json:"detail,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// JobsResponse lists finished jobs, newest first.
type JobsResponse struct {
	Jobs []JobRecord `json:"jobs"`
}
