package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"reelforge/internal/api"
	"reelforge/internal/config"
	"reelforge/internal/content"
	"reelforge/internal/logging"
	"reelforge/internal/queue"
	"reelforge/internal/services"
)

const defaultJobListLimit = 100

type apiServer struct {
	bind    string
	cfg     *config.Config
	logger  *slog.Logger
	daemon  *Daemon
	jobSvc  *api.JobService
	handler http.Handler

	server *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(cfg.Paths.APIBind),
		cfg:    cfg,
		logger: logger,
		daemon: d,
		jobSvc: api.NewJobService(d.store),
	}

	token := cfg.Paths.APIToken
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/videos", authMiddleware(token, srv.handleRender))
	mux.HandleFunc("POST /generate-video", authMiddleware(token, srv.handleRender))
	mux.HandleFunc("GET /api/jobs", authMiddleware(token, srv.handleJobs))
	mux.HandleFunc("GET /api/jobs/{id}", authMiddleware(token, srv.handleJob))
	mux.HandleFunc("GET /api/events", authMiddleware(token, srv.handleEvents))
	mux.HandleFunc("GET /api/status", authMiddleware(token, srv.handleStatus))
	mux.HandleFunc("GET /videos/{file}", authMiddleware(token, srv.serveFrom(cfg.Paths.OutputDir)))
	mux.HandleFunc("GET /thumbnails/{file}", authMiddleware(token, srv.serveFrom(cfg.Paths.ThumbnailDir)))
	srv.handler = mux

	// Renders are synchronous, so there is no write timeout; the pipeline's
	// per-stage timeouts bound a request instead.
	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return srv
}

// serve listens on the configured bind and blocks until ctx is done.
func (s *apiServer) serve(ctx context.Context, ready chan<- string) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	addr := listener.Addr().String()
	s.log().Info("api server listening",
		logging.String("address", addr),
		logging.Bool("auth", s.cfg.Paths.APIToken != ""),
		logging.String(logging.FieldEventType, "api_listening"),
	)
	if ready != nil {
		ready <- addr
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
	}

	timeout := time.Duration(s.cfg.Daemon.ShutdownTimeoutSeconds) * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		logging.WarnWithContext(s.log(), "api server shutdown incomplete", "api_shutdown_timeout",
			logging.Error(err),
			logging.String(logging.FieldImpact, "in-flight renders were interrupted"),
		)
		_ = s.server.Close()
	}
	return nil
}

func (s *apiServer) handleRender(w http.ResponseWriter, r *http.Request) {
	req, err := content.Decode(r.Body)
	if err != nil {
		s.writeFailure(w, "", services.Wrap(services.ErrValidation, "validate", "decode request", "", err))
		return
	}
	result, err := s.daemon.Submit(r.Context(), req)
	if err != nil {
		s.writeFailure(w, result.RequestID, err)
		return
	}
	resp := api.FromResult(result)
	if resp.VideoPath != "" {
		resp.VideoURL = "/videos/" + filepath.Base(resp.VideoPath)
	}
	if resp.ThumbnailPath != "" {
		resp.ThumbnailURL = "/thumbnails/" + filepath.Base(resp.ThumbnailPath)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var statuses []queue.Status
	for _, value := range query["status"] {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		status, ok := queue.ParseStatus(trimmed)
		if !ok {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", trimmed))
			return
		}
		statuses = append(statuses, status)
	}
	limit := defaultJobListLimit
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	jobs, err := s.jobSvc.List(r.Context(), limit, statuses...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if jobs == nil {
		jobs = []api.Job{}
	}
	s.writeJSON(w, http.StatusOK, api.JobListResponse{Jobs: jobs})
}

func (s *apiServer) handleJob(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	job, err := s.jobSvc.Describe(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if job == nil {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.JobResponse{Job: *job})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())
	s.writeJSON(w, http.StatusOK, api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		Bind:         s.bind,
		QueueDBPath:  status.QueueDBPath,
		LockFilePath: status.LockFilePath,
		ActiveJobs:   status.ActiveJobs,
		MaxJobs:      status.MaxJobs,
		Jobs:         status.Jobs,
		Presets:      s.cfg.PresetNames(),
		Checks:       api.FromChecks(status.Checks),
	})
}

// serveFrom serves a single file from dir by base name. Subdirectories and
// listings are never exposed.
func (s *apiServer) serveFrom(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("file")
		if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
			s.writeError(w, http.StatusNotFound, "file not found")
			return
		}
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			s.writeError(w, http.StatusNotFound, "file not found")
			return
		}
		http.ServeFile(w, r, path)
	}
}

func (s *apiServer) writeFailure(w http.ResponseWriter, requestID string, err error) {
	s.writeJSON(w, services.HTTPStatus(err), api.ErrorResponse{
		Error:     err.Error(),
		Kind:      services.Kind(err),
		RequestID: requestID,
	})
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

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
