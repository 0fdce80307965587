// Package server exposes the indexing service over HTTP: the video catalog
// CRUD endpoints and the reindex job controls, plus health and metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"subsearch/internal/indexer"
	"subsearch/internal/metrics"
	"subsearch/internal/store"
	"subsearch/internal/subtitle"
)

// Server is the HTTP front of the indexing service
type Server struct {
	indexer *indexer.Indexer
	videos  store.VideoStore
	metrics *metrics.Metrics
	logger  *zap.Logger
	http    *http.Server
}

// NewServer creates a Server listening on addr
func NewServer(addr string, ix *indexer.Indexer, videos store.VideoStore, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{indexer: ix, videos: videos, logger: logger}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// SetMetrics attaches Prometheus metrics to the request handlers
func (s *Server) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /api/v1/indexer/index", s.instrument("/api/v1/indexer/index", s.handleStartIndexing))
	mux.Handle("GET /api/v1/indexer/status", s.instrument("/api/v1/indexer/status", s.handleIndexingStatus))

	mux.Handle("GET /api/v1/videos", s.instrument("/api/v1/videos", s.handleListVideos))
	mux.Handle("POST /api/v1/videos", s.instrument("/api/v1/videos", s.handleAddVideo))
	mux.Handle("PUT /api/v1/videos/{id}", s.instrument("/api/v1/videos/{id}", s.handleUpdateVideo))
	mux.Handle("DELETE /api/v1/videos/{id}", s.instrument("/api/v1/videos/{id}", s.handleRemoveVideo))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

// Start runs the HTTP server until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("HTTP server is listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleStartIndexing(w http.ResponseWriter, r *http.Request) {
	if err := s.indexer.StartIndexing(); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Indexing has been started"))
}

func (s *Server) handleIndexingStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.indexer.Status())
}

type videoRequest struct {
	VideoID string `json:"videoId"`
	Variety string `json:"variety"`
	SRT     string `json:"srt"`
}

type videoPage struct {
	Videos []store.Video `json:"videos"`
	Total  int           `json:"total"`
	Page   int           `json:"page"`
	Size   int           `json:"size"`
}

func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	variety, err := store.ParseVariety(query.Get("variety"))
	if err != nil {
		s.writeBadRequest(w, err)
		return
	}
	filter := store.VideoFilter{
		ID:              query.Get("id"),
		ExternalVideoID: query.Get("videoId"),
		Variety:         variety,
	}

	page := intParam(query.Get("page"), 0)
	size := intParam(query.Get("size"), 20)

	videos, total, err := s.videos.Search(r.Context(), filter, page, size)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if videos == nil {
		videos = []store.Video{}
	}
	s.writeJSON(w, http.StatusOK, videoPage{Videos: videos, Total: total, Page: page, Size: size})
}

func (s *Server) handleAddVideo(w http.ResponseWriter, r *http.Request) {
	var req videoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeBadRequest(w, err)
		return
	}
	variety, err := parseConcreteVariety(req.Variety)
	if err != nil {
		s.writeBadRequest(w, err)
		return
	}

	id, err := s.indexer.Add(r.Context(), req.VideoID, variety, req.SRT)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (s *Server) handleUpdateVideo(w http.ResponseWriter, r *http.Request) {
	var req videoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeBadRequest(w, err)
		return
	}
	variety, err := parseConcreteVariety(req.Variety)
	if err != nil {
		s.writeBadRequest(w, err)
		return
	}

	if err := s.indexer.Update(r.Context(), r.PathValue("id"), req.VideoID, variety, req.SRT); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleRemoveVideo(w http.ResponseWriter, r *http.Request) {
	if err := s.indexer.Remove(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// parseConcreteVariety parses a variety for a stored video; the catch-all
// filter value is not a valid stored variety
func parseConcreteVariety(value string) (store.Variety, error) {
	variety, err := store.ParseVariety(value)
	if err != nil {
		return "", err
	}
	if variety == store.VarietyAll {
		return "", errors.New("a video must have a concrete variety")
	}
	return variety, nil
}

func intParam(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to write response", zap.Error(err))
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeBadRequest(w http.ResponseWriter, err error) {
	s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var parseErr *subtitle.ParseError
	switch {
	case errors.Is(err, indexer.ErrIndexingConflict), errors.Is(err, indexer.ErrVideoExists):
		s.writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, indexer.ErrVideoNotFound):
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.As(err, &parseErr):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		s.logger.Error("request has failed", zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// statusRecorder captures the response status for request metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) instrument(route string, handler http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.metrics == nil {
			handler(w, r)
			return
		}

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		handler(recorder, r)

		s.metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(recorder.status)).Inc()
		s.metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
