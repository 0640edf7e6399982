package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"clippub/internal/api"
	"clippub/internal/config"
	"clippub/internal/history"
	"clippub/internal/logging"
	"clippub/internal/orchestrator"
	"clippub/internal/services"
	"clippub/internal/textutil"
)

// maxFormMemory bounds how much of a multipart upload is buffered in memory;
// the remainder spills to temporary files.
const maxFormMemory = 64 << 20

const defaultJobsLimit = 50

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, errors.New("api bind address is required")
	}

	srv := &apiServer{
		bind:   bind,
		logger: logger,
		daemon: d,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", srv.handleHealth)
	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/api/jobs", srv.handleJobs)
	mux.HandleFunc("/api/submit", srv.handleSubmit)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		// No ReadTimeout/WriteTimeout: submit requests stream large uploads
		// in and then block for the whole publish session.
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "method_not_allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, api.HealthResponse{Status: "ok"})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "method_not_allowed")
		return
	}
	status := s.daemon.Status()
	s.writeJSON(w, http.StatusOK, api.StatusResponse{
		Running:       status.Running,
		PID:           status.PID,
		Occupied:      status.Occupied,
		OccupiedSince: status.OccupiedSince,
		WorkingDir:    status.WorkingDir,
		HistoryDBPath: status.HistoryDBPath,
		LockFilePath:  status.LockFilePath,
	})
}

func (s *apiServer) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "method_not_allowed")
		return
	}
	limit := defaultJobsLimit
	if value := strings.TrimSpace(r.URL.Query().Get("limit")); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit", "validation_error")
			return
		}
		limit = parsed
	}

	records, err := s.daemon.store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error(), "internal")
		return
	}
	jobs := make([]api.JobRecord, 0, len(records))
	for _, rec := range records {
		jobs = append(jobs, convertRecord(rec))
	}
	s.writeJSON(w, http.StatusOK, api.JobsResponse{Jobs: jobs})
}

func (s *apiServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "method_not_allowed")
		return
	}

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error(), "validation_error")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	video, _, err := r.FormFile("video")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "video file is required", "validation_error")
		return
	}
	defer video.Close()

	req := orchestrator.Request{
		Account:     textutil.CleanFormValue(r.FormValue("account")),
		Video:       video,
		Description: textutil.CleanFormValue(r.FormValue("description")),
		Hashtags:    textutil.CleanFormValue(r.FormValue("hashtags")),
		SoundID:     textutil.CleanFormValue(r.FormValue("sound_id")),
		MixMode:     textutil.CleanFormValue(r.FormValue("mix_mode")),
		Schedule:    textutil.CleanFormValue(r.FormValue("schedule")),
	}
	if value := textutil.CleanFormValue(r.FormValue("headless")); value != "" {
		headless, parseErr := strconv.ParseBool(value)
		if parseErr != nil {
			s.writeError(w, http.StatusBadRequest, "invalid headless value", "validation_error")
			return
		}
		req.Headless = &headless
	}

	ctx := services.WithRequestID(r.Context(), uuid.NewString())
	outcome, err := s.daemon.orch.Submit(ctx, req)
	if err != nil {
		s.writeError(w, services.HTTPStatus(err), err.Error(), services.Classify(err))
		return
	}
	s.writeJSON(w, http.StatusOK, api.SubmitResponse{
		JobID:          outcome.JobID,
		SessionID:      outcome.SessionID,
		Account:        outcome.Account,
		Description:    outcome.Description,
		ElapsedSeconds: outcome.Elapsed.Seconds(),
	})
}

func convertRecord(rec history.Record) api.JobRecord {
	return api.JobRecord{
		ID:          rec.ID,
		Account:     rec.Account,
		Description: rec.Description,
		SoundID:     rec.SoundID,
		MixMode:     rec.MixMode,
		Schedule:    rec.Schedule,
		Outcome:     rec.Outcome,
		ErrorClass:  rec.ErrorClass,
		Detail:      rec.Detail,
		SubmittedAt: rec.SubmittedAt,
		FinishedAt:  rec.FinishedAt,
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message, class string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message, Class: class})
}

func (s *apiServer) log() *slog.Logger {
	return logging.NewComponentLogger(s.logger, "api-server")
}
