package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stewardai/adaptive-rag/internal/core/domain"
	"github.com/stewardai/adaptive-rag/internal/core/ports"
	"github.com/stewardai/adaptive-rag/internal/observability/metrics"
)

const serviceName = "rag-api"

// VectorCounter reports the size of the knowledge base collection.
type VectorCounter interface {
	Count(ctx context.Context) (int, error)
}

type Router struct {
	pipeline ports.QueryPipeline
	events   ports.RunEventPublisher
	vectors  VectorCounter
	metrics  *metrics.HTTPServerMetrics
	logger   *slog.Logger

	rateLimitRPS   float64
	rateLimitBurst int
}

func NewRouter(
	pipeline ports.QueryPipeline,
	events ports.RunEventPublisher,
	vectors VectorCounter,
	serverMetrics *metrics.HTTPServerMetrics,
	logger *slog.Logger,
	rateLimitRPS float64,
	rateLimitBurst int,
) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		pipeline:       pipeline,
		events:         events,
		vectors:        vectors,
		metrics:        serverMetrics,
		logger:         logger,
		rateLimitRPS:   rateLimitRPS,
		rateLimitBurst: rateLimitBurst,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/rag/query", rt.queryRAG)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, 64, 5*time.Second)
	if rt.rateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	}
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(rt.logger, handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "ok"}
	if rt.vectors != nil {
		count, err := rt.vectors.Count(r.Context())
		if err != nil {
			status["status"] = "degraded"
			status["vector_store"] = "unreachable"
			writeJSON(w, http.StatusOK, status)
			return
		}
		status["vector_count"] = count
	}
	writeJSON(w, http.StatusOK, status)
}

func (rt *Router) queryRAG(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	start := time.Now()
	result := rt.pipeline.Run(r.Context(), req.Query)
	elapsed := time.Since(start)

	runID := uuid.NewString()
	rt.recordRunMetrics(result, elapsed)
	rt.publishRun(r.Context(), runID, req.Query, result)

	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":         runID,
		"answer":         result.Answer,
		"category":       result.Category,
		"tone":           result.Tone,
		"success":        result.Success,
		"is_fallback":    result.IsFallback,
		"logs":           result.Logs,
		"detailed_trace": result.DetailedTrace,
	})
}

func (rt *Router) recordRunMetrics(result domain.PipelineResult, elapsed time.Duration) {
	if rt.metrics == nil {
		return
	}

	// A successful fallback still has Success=true, so fallback is checked first.
	outcome := "failure"
	switch {
	case result.IsFallback:
		outcome = "fallback"
	case result.Success:
		outcome = "success"
	}
	rt.metrics.RecordPipelineRun(serviceName, outcome, len(result.DetailedTrace), elapsed)
	if result.IsFallback {
		rt.metrics.RecordFallback(serviceName)
	}
	for _, attempt := range result.DetailedTrace {
		for _, step := range attempt.Steps {
			if step.Status == domain.StepFailed {
				rt.metrics.RecordGateFailure(serviceName, step.Name)
			}
		}
	}
}

func (rt *Router) publishRun(ctx context.Context, runID, query string, result domain.PipelineResult) {
	if rt.events == nil {
		return
	}

	run := domain.RunRecord{
		ID:         runID,
		Query:      query,
		Answer:     result.Answer,
		Category:   result.Category,
		Tone:       result.Tone,
		Success:    result.Success,
		IsFallback: result.IsFallback,
		Attempts:   len(result.DetailedTrace),
		CreatedAt:  time.Now().UTC(),
	}
	if err := rt.events.PublishRunCompleted(ctx, run); err != nil {
		// Audit trail is best effort, the answer still goes out.
		rt.logger.Warn("publish run event failed", "run_id", runID, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
