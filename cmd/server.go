package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/jobfit/internal/gap"
	"github.com/spigell/jobfit/internal/logger"
)

const requestIDHeader = "X-Request-ID"

type analyzer interface {
	Analyze(ctx context.Context, req gap.Request) gap.Response
}

type server struct {
	engine       analyzer
	maxBodyBytes int64
	logger       *zap.Logger
}

func newServer(engine analyzer, maxBodyBytes int64, log *zap.Logger) *server {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 4 << 20
	}
	return &server{
		engine:       engine,
		maxBodyBytes: maxBodyBytes,
		logger:       logger.OrNop(log),
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/gap-analysis", s.handleGapAnalysis)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return withRequestID(mux)
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleGapAnalysis(w http.ResponseWriter, r *http.Request) {
	log := s.logger.With(zap.String(logger.FieldRequestID, r.Header.Get(requestIDHeader)))

	req, err := decodeRequest(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		log.Info("rejecting gap analysis request", zap.Int("status", status), zap.Error(err))
		writeJSON(w, status, gap.Response{
			Success: false,
			Message: err.Error(),
			Ranked:  []gap.GapAnalysisItem{},
			Helper:  gap.Helper{Notes: []string{}},
		})
		return
	}

	resp := s.engine.Analyze(r.Context(), req)
	log.Info("gap analysis served",
		zap.Int("jobs", len(resp.Ranked)),
		zap.Bool("used_llm", resp.Helper.UsedLLM),
	)
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
