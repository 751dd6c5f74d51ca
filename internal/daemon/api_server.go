package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"signbridge/internal/api"
	"signbridge/internal/config"
	"signbridge/internal/logging"
	"signbridge/internal/pipeline"
	"signbridge/internal/services"
	"signbridge/internal/services/signvideo"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon
	cfg    *config.Config

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:   bind,
		logger: logger,
		daemon: d,
		cfg:    cfg,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/api/languages", srv.handleLanguages)
	mux.HandleFunc("/api/runs", srv.handleRuns)
	mux.HandleFunc("/api/runs/", srv.handleRun)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
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
	if s == nil {
		return
	}
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
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	payload := api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		LedgerDBPath: status.LedgerDBPath,
		LockFilePath: status.LockFilePath,
		Languages:    s.daemon.Languages(),
		Models:       []string{signvideo.ModelMale, signvideo.ModelFemale},
	}
	if status.ActiveRun != nil {
		view := api.FromRun(*status.ActiveRun)
		payload.ActiveRun = &view
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleLanguages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"languages": s.daemon.Languages()})
}

func (s *apiServer) handleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listRuns(w, r)
	case http.MethodPost:
		s.startRun(w, r)
	case http.MethodDelete:
		s.clearRuns(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) listRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := s.daemon.ListRuns(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.RunListResponse{Runs: api.FromRuns(runs)})
}

func (s *apiServer) startRun(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes())
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes()); err != nil {
		s.writeError(w, http.StatusBadRequest, "parse upload: "+err.Error())
		return
	}

	input := pipeline.Input{
		TempAudioID: strings.TrimSpace(r.FormValue("temp_audio_id")),
	}
	if file, header, err := r.FormFile("audio"); err == nil {
		defer file.Close()
		if !s.cfg.AllowedExtension(header.Filename) {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported audio file %q", header.Filename))
			return
		}
		data, readErr := io.ReadAll(file)
		if readErr != nil {
			s.writeError(w, http.StatusBadRequest, "read upload: "+readErr.Error())
			return
		}
		input.Audio = data
		input.FileName = header.Filename
	}

	run, err := s.daemon.StartRun(r.Context(), input)
	if err != nil {
		s.writeRunError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, api.RunResponse{Run: api.FromRun(run)})
}

func (s *apiServer) clearRuns(w http.ResponseWriter, r *http.Request) {
	var (
		removed int64
		err     error
	)
	if value := r.URL.Query().Get("finished"); value == "1" || strings.EqualFold(value, "true") {
		removed, err = s.daemon.ClearFinished(r.Context())
	} else {
		removed, err = s.daemon.ClearRuns(r.Context())
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}

func (s *apiServer) handleRun(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/runs/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}

	if action == "" {
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		run, err := s.daemon.GetRun(r.Context(), id)
		if err != nil {
			s.writeRunError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.RunResponse{Run: api.FromRun(run)})
		return
	}

	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var (
		run     pipeline.Run
		err     error
		status  = http.StatusOK
		decoder = json.NewDecoder(r.Body)
	)
	switch action {
	case "translation":
		var body struct {
			Text string `json:"text"`
		}
		if decodeErr := decoder.Decode(&body); decodeErr != nil {
			s.writeError(w, http.StatusBadRequest, "parse request: "+decodeErr.Error())
			return
		}
		run, err = s.daemon.SetTranslation(r.Context(), id, body.Text)
	case "video":
		var body struct {
			Model string `json:"model"`
		}
		if decodeErr := decoder.Decode(&body); decodeErr != nil && !errors.Is(decodeErr, io.EOF) {
			s.writeError(w, http.StatusBadRequest, "parse request: "+decodeErr.Error())
			return
		}
		run, err = s.daemon.GenerateVideo(r.Context(), id, body.Model)
		status = http.StatusAccepted
	case "retry":
		run, err = s.daemon.RetryRun(r.Context(), id)
		status = http.StatusAccepted
	case "cancel":
		run, err = s.daemon.CancelRun(r.Context(), id)
	case "save":
		run, err = s.daemon.SaveRun(r.Context(), id)
	default:
		s.writeError(w, http.StatusNotFound, "unknown run action")
		return
	}
	if err != nil {
		s.writeRunError(w, err)
		return
	}
	s.writeJSON(w, status, api.RunResponse{Run: api.FromRun(run)})
}

func (s *apiServer) writeRunError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrRunNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrValidation):
		s.writeError(w, http.StatusConflict, services.Details(err).Message)
	case errors.Is(err, services.ErrBusiness), errors.Is(err, services.ErrUnsupportedLanguage):
		s.writeError(w, http.StatusUnprocessableEntity, services.Details(err).Message)
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
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

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return logging.NewComponentLogger(s.logger, "api-server")
	}
	return logging.NewNop()
}
