package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stewardai/adaptive-rag/internal/core/domain"
	"github.com/stewardai/adaptive-rag/internal/core/ports"
)

// QueryAnalyzer issues one completion per attempt and parses the structured
// intent metadata out of it.
type QueryAnalyzer struct {
	gateway     ports.LLMGateway
	temperature float64
}

func NewQueryAnalyzer(gateway ports.LLMGateway, temperature float64) *QueryAnalyzer {
	return &QueryAnalyzer{gateway: gateway, temperature: temperature}
}

// Analyze returns the intent metadata for the input. A gateway failure is
// reported as an error so callers can distinguish "service unavailable" from
// "irrelevant". Malformed analyzer output never faults the pipeline: the
// default analysis is substituted and execution continues with the query
// unmodified.
func (a *QueryAnalyzer) Analyze(ctx context.Context, input string) (*domain.Analysis, error) {
	response, err := a.gateway.Complete(ctx, buildAnalysisMessages(input), a.temperature)
	if err != nil {
		return nil, fmt.Errorf("analyze query: %w", err)
	}

	var analysis domain.Analysis
	if err := json.Unmarshal([]byte(extractJSONObject(response)), &analysis); err != nil {
		fallback := domain.DefaultAnalysis(input)
		return &fallback, nil
	}
	if strings.TrimSpace(analysis.RewrittenQuery) == "" {
		analysis.RewrittenQuery = input
	}
	return &analysis, nil
}

// extractJSONObject trims markdown fences and surrounding prose off a model
// response that is supposed to be a single JSON object.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
