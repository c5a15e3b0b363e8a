package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/stewardai/adaptive-rag/internal/core/domain"
)

// ReconstructionController composes analysis, relevance gating, and rewrite
// validation into the single per-attempt reconstruction decision.
type ReconstructionController struct {
	analyzer  *QueryAnalyzer
	relevance *RelevanceGate
	validator *RewriteValidator
}

func NewReconstructionController(
	analyzer *QueryAnalyzer,
	relevance *RelevanceGate,
	validator *RewriteValidator,
) *ReconstructionController {
	return &ReconstructionController{
		analyzer:  analyzer,
		relevance: relevance,
		validator: validator,
	}
}

// Reconstruct produces the query used for retrieval on this attempt.
// Feedback from the previous failed gate, when present, is appended to the
// analyzer input verbatim as an advisory annotation. A gateway failure is
// returned as an error, distinct from an irrelevant result.
func (c *ReconstructionController) Reconstruct(ctx context.Context, query, feedback string) (*domain.ReconstructionResult, error) {
	input := query
	if feedback != "" {
		input = fmt.Sprintf("%s (Fix: %s)", query, feedback)
	}

	analysis, err := c.analyzer.Analyze(ctx, input)
	if err != nil {
		return nil, err
	}

	relevant, message := c.relevance.Check(ctx, query, *analysis)
	if !relevant {
		return &domain.ReconstructionResult{
			IsRelevant: false,
			Logs:       []string{"Irrelevant: " + message},
		}, nil
	}

	rewritten := analysis.RewrittenQuery
	if strings.TrimSpace(rewritten) == "" {
		rewritten = query
	}
	verdict := c.validator.Validate(ctx, query, rewritten)
	finalQuery, note := SelectQueryStrategy(query, rewritten, verdict)

	category := analysis.Category
	if category == "" {
		category = domain.DefaultCategory
	}
	tone := analysis.AnswerTone
	if tone == "" {
		tone = domain.DefaultTone
	}

	return &domain.ReconstructionResult{
		IsRelevant: true,
		FinalQuery: finalQuery,
		Category:   category,
		Tone:       tone,
		Logs: []string{
			"Category: " + category,
			"Tone: " + tone,
			"Strategy: " + note,
			"Final Query: " + finalQuery,
		},
	}, nil
}
