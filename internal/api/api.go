// Package api exposes the coordinator over HTTP with JSON bodies.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"video-factcheck-go/internal/apperr"
	"video-factcheck-go/internal/logger"
	"video-factcheck-go/internal/types"
	"video-factcheck-go/internal/workpool"
)

// Service is the subset of processor.Coordinator the handlers need.
type Service interface {
	Analyze(ctx context.Context, videoURL string) (types.Result, error)
	Transcript(ctx context.Context, videoURL string) (types.TranscriptResult, error)
	Summary(ctx context.Context, videoURL string) (types.SummaryResult, error)
	Ask(ctx context.Context, videoURL, question string) (types.Answer, error)
	Stored(ctx context.Context, videoID string) (types.Record, error)
	History(ctx context.Context, limit int) ([]types.Record, error)
}

type Server struct {
	svc  Service
	pool *workpool.Pool
	log  *logger.Logger
}

func New(svc Service, pool *workpool.Pool, log *logger.Logger) *Server {
	return &Server{svc: svc, pool: pool, log: log}
}

// Handler returns the routed handler with request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.health)
	mux.HandleFunc("POST /api/analyze", s.analyze)
	mux.HandleFunc("GET /api/transcript", s.transcript)
	mux.HandleFunc("GET /api/summary", s.summary)
	mux.HandleFunc("POST /api/question", s.question)
	mux.HandleFunc("GET /api/analysis", s.analysis)
	mux.HandleFunc("GET /api/history", s.history)
	return s.logRequests(mux)
}

type analyzeRequest struct {
	VideoURL string `json:"video_url"`
}

type questionRequest struct {
	VideoURL string `json:"video_url"`
	Question string `json:"question"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok"}
	if s.pool != nil {
		body["pool"] = s.pool.Metrics()
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, r, apperr.Errorf(apperr.Input, "api.analyze", "invalid JSON body"))
		return
	}
	if strings.TrimSpace(req.VideoURL) == "" {
		s.fail(w, r, apperr.Errorf(apperr.Input, "api.analyze", "No video URL provided"))
		return
	}
	res, err := s.svc.Analyze(r.Context(), req.VideoURL)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) transcript(w http.ResponseWriter, r *http.Request) {
	videoURL, ok := s.requireQuery(w, r, "video_url", "No video URL provided")
	if !ok {
		return
	}
	res, err := s.svc.Transcript(r.Context(), videoURL)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	videoURL, ok := s.requireQuery(w, r, "video_url", "No video URL provided")
	if !ok {
		return
	}
	res, err := s.svc.Summary(r.Context(), videoURL)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) question(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, r, apperr.Errorf(apperr.Input, "api.question", "No data provided"))
		return
	}
	if strings.TrimSpace(req.VideoURL) == "" || strings.TrimSpace(req.Question) == "" {
		s.fail(w, r, apperr.Errorf(apperr.Input, "api.question", "Missing video_url or question"))
		return
	}
	res, err := s.svc.Ask(r.Context(), req.VideoURL, req.Question)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) analysis(w http.ResponseWriter, r *http.Request) {
	videoID, ok := s.requireQuery(w, r, "video_id", "No video id provided")
	if !ok {
		return
	}
	rec, err := s.svc.Stored(r.Context(), videoID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.fail(w, r, apperr.Errorf(apperr.Input, "api.history", "limit must be a positive integer"))
			return
		}
		limit = n
	}
	recs, err := s.svc.History(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if recs == nil {
		recs = []types.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) requireQuery(w http.ResponseWriter, r *http.Request, key, msg string) (string, bool) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		s.fail(w, r, apperr.Errorf(apperr.Input, "api", "%s", msg))
		return "", false
	}
	return v, true
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.Input:
		return http.StatusBadRequest
	case apperr.TranscriptUnavailable, apperr.NotFound:
		return http.StatusNotFound
	case apperr.RateLimit, apperr.Remote, apperr.MalformedResponse, apperr.MetadataUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	entry := s.log.WithRequest(r).WithFields(logrus.Fields{
		"status": status,
		"kind":   apperr.KindOf(err).String(),
	}).WithError(err)
	if status >= 500 {
		entry.Error("request failed")
	} else {
		entry.Warn("request rejected")
	}
	writeJSON(w, status, map[string]string{"error": message(err)})
}

// message returns the innermost message of an apperr chain without its op
// prefixes.
func message(err error) string {
	var e *apperr.Error
	for errors.As(err, &e) && e.Err != nil {
		err = e.Err
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		// one id per request so every log line for it correlates
		if r.Header.Get("X-Request-ID") == "" {
			r.Header.Set("X-Request-ID", uuid.New().String())
		}
		w.Header().Set("X-Request-ID", r.Header.Get("X-Request-ID"))
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.WithRequest(r).WithFields(logrus.Fields{
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("request handled")
	})
}
