package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/agrimesh/artifact"
	"github.com/hupe1980/agrimesh/core"
	"github.com/hupe1980/agrimesh/pipeline"
	"github.com/hupe1980/agrimesh/speech"

	_ "github.com/hupe1980/agrimesh/docs" // registers the OpenAPI document
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Version string `json:"version,omitempty"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type textQuery struct {
	Text  string   `json:"text"`
	Langs []string `json:"langs"`
}

type chatResponse struct {
	Text          string `json:"text"`
	AudioURL      string `json:"audio_url,omitempty"`
	Language      string `json:"language"`
	AudioFilename string `json:"audio_filename,omitempty"`
	SessionID     string `json:"session_id"`
	Transcript    string `json:"transcript,omitempty"`
}

type historyResponse struct {
	SessionID string         `json:"session_id"`
	Messages  []core.Message `json:"messages"`
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /text", s.handleText)
	mux.HandleFunc("POST /audio", s.handleAudio)
	mux.HandleFunc("GET /get-audio/{filename}", s.handleGetAudio)
	mux.HandleFunc("GET /sessions/{id}/history", s.handleHistory)
	mux.HandleFunc("DELETE /sessions/{id}", s.handleClear)

	// Swagger UI for the generated OpenAPI docs.
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
}

// ListenAndServe serves the HTTP API on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.opts.Logger.Info("server.http.listening", "addr", addr)

	go func() {
		<-ctx.Done()
		s.opts.Logger.Info("server.http.shutdown")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

// handleRoot reports that the service is up.
//
// @Summary  Service status
// @Tags     health
// @Produce  json
// @Success  200  {object}  statusResponse
// @Router   / [get]
func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status:  "ok",
		Message: "APMC Chatbot API is running.",
		Version: s.opts.Version,
	})
}

// handleHealth is the readiness probe.
//
// @Summary  Readiness probe
// @Tags     health
// @Produce  json
// @Success  200  {object}  statusResponse
// @Failure  503  {object}  statusResponse
// @Router   /healthz [get]
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if !s.ready.Load() {
		writeJSON(w, http.StatusServiceUnavailable, statusResponse{Status: "not_ready"})
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

// handleText answers a typed question.
//
// @Summary     Answer a text question
// @Description Runs the agent on a typed question, localizes the answer and synthesizes speech.
// @Tags        chat
// @Accept      json
// @Produce     json
// @Param       query       body   textQuery  true   "Question"
// @Param       session_id  query  string     false  "Conversation key"
// @Param       lat         query  number     false  "Latitude"
// @Param       lon         query  number     false  "Longitude"
// @Success     200  {object}  chatResponse
// @Failure     400  {object}  errorResponse
// @Failure     500  {object}  errorResponse
// @Router      /text [post]
func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	var q textQuery
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}
	coords, err := coordinates(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := s.bot.HandleText(r.Context(), pipeline.TextRequest{
		SessionID:   r.URL.Query().Get("session_id"),
		Text:        q.Text,
		Languages:   q.Langs,
		Coordinates: coords,
	})
	if err != nil {
		s.writePipelineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.chatResponse(r, resp))
}

// handleAudio answers a recorded question.
//
// @Summary     Answer a spoken question
// @Description Validates and transcribes an uploaded clip, then answers it like /text.
// @Tags        chat
// @Accept      multipart/form-data
// @Produce     json
// @Param       audio_file  formData  file    true   "Recorded question (.mp3 or .wav)"
// @Param       session_id  query     string  false  "Conversation key"
// @Param       lat         query     number  false  "Latitude"
// @Param       lon         query     number  false  "Longitude"
// @Success     200  {object}  chatResponse
// @Failure     400  {object}  errorResponse
// @Failure     500  {object}  errorResponse
// @Router      /audio [post]
func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.opts.MaxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "Audio file too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)

	file, header, err := r.FormFile("audio_file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Audio file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Missing audio_file upload")
		return
	}
	defer file.Close() //nolint:errcheck

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Could not read audio_file: "+err.Error())
		return
	}
	coords, err := coordinates(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := s.bot.HandleAudio(r.Context(), pipeline.AudioRequest{
		SessionID:   r.URL.Query().Get("session_id"),
		Filename:    header.Filename,
		Data:        data,
		Coordinates: coords,
	})
	if err != nil {
		s.writePipelineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.chatResponse(r, resp))
}

// handleGetAudio serves a synthesized audio file.
//
// @Summary  Download synthesized audio
// @Tags     chat
// @Produce  audio/mpeg
// @Produce  audio/wav
// @Param    filename  path  string  true  "Audio file name"
// @Success  200  {file}    file
// @Failure  404  {object}  errorResponse
// @Router   /get-audio/{filename} [get]
func (s *Server) handleGetAudio(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")
	if s.opts.Artifacts == nil {
		writeError(w, http.StatusNotFound, "Audio file not found")
		return
	}
	data, err := s.opts.Artifacts.Get(name)
	if err != nil {
		if !errors.Is(err, artifact.ErrNotFound) && !errors.Is(err, artifact.ErrInvalidName) {
			s.opts.Logger.Error("server.audio.read_failed", "filename", name, "error", err.Error())
		}
		writeError(w, http.StatusNotFound, "Audio file not found")
		return
	}

	w.Header().Set("Content-Type", speech.ContentTypeFor(name))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleHistory returns a session's messages.
//
// @Summary  Conversation history
// @Tags     sessions
// @Produce  json
// @Param    id  path  string  true  "Session ID"
// @Success  200  {object}  historyResponse
// @Router   /sessions/{id}/history [get]
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	msgs := s.sessions.History(id)
	if msgs == nil {
		msgs = []core.Message{}
	}
	writeJSON(w, http.StatusOK, historyResponse{SessionID: id, Messages: msgs})
}

// handleClear discards a session.
//
// @Summary  Clear a conversation
// @Tags     sessions
// @Param    id  path  string  true  "Session ID"
// @Success  204
// @Router   /sessions/{id} [delete]
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.sessions.ClearHistory(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) chatResponse(r *http.Request, resp *pipeline.Response) chatResponse {
	out := chatResponse{
		Text:          resp.Text,
		Language:      resp.Language,
		AudioFilename: resp.AudioFile,
		SessionID:     resp.SessionID,
		Transcript:    resp.Transcript,
	}
	if resp.AudioFile != "" {
		out.AudioURL = s.baseURL(r) + "get-audio/" + resp.AudioFile
	}
	return out
}

func (s *Server) baseURL(r *http.Request) string {
	if s.opts.PublicURL != "" {
		return s.opts.PublicURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = p
	}
	return scheme + "://" + r.Host + "/"
}

func (s *Server) writePipelineError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *pipeline.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Reason)
		return
	}

	var serr *pipeline.StageError
	if errors.As(err, &serr) {
		s.opts.Logger.Error("server.request.failed", "path", r.URL.Path, "stage", string(serr.Stage), "error", serr.Err.Error())
		writeError(w, http.StatusInternalServerError, serr.Error())
		return
	}

	s.opts.Logger.Error("server.request.failed", "path", r.URL.Path, "error", err.Error())
	writeError(w, http.StatusInternalServerError, err.Error())
}

// coordinates parses the optional lat/lon query parameters. Both must be
// present for a location hint to apply.
func coordinates(r *http.Request) (*core.Coordinates, error) {
	q := r.URL.Query()
	latStr, lonStr := strings.TrimSpace(q.Get("lat")), strings.TrimSpace(q.Get("lon"))
	if latStr == "" || lonStr == "" {
		return nil, nil
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, fmt.Errorf("Invalid latitude %q", latStr)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil, fmt.Errorf("Invalid longitude %q", lonStr)
	}
	c := &core.Coordinates{Lat: lat, Lon: lon}
	if !c.Valid() {
		return nil, fmt.Errorf("Coordinates out of range: %s", c)
	}
	return c, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.opts.Logger.Debug("server.http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
