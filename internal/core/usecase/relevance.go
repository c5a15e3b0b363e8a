package usecase

import (
	"context"
	"fmt"

	"github.com/stewardai/adaptive-rag/internal/core/domain"
	"github.com/stewardai/adaptive-rag/internal/core/ports"
)

// RelevanceGate filters queries outside the knowledge base domain. The
// analyzer's own relevance flag is authoritative; the embedding similarity
// against the domain text is logged for diagnostics but never decides.
type RelevanceGate struct {
	embedder   ports.Embedder
	domainText string
}

func NewRelevanceGate(embedder ports.Embedder, domainText string) *RelevanceGate {
	return &RelevanceGate{embedder: embedder, domainText: domainText}
}

func (g *RelevanceGate) Check(ctx context.Context, query string, analysis domain.Analysis) (bool, string) {
	score, err := g.embedder.Similarity(ctx, query, g.domainText)
	if err != nil {
		// Informational only, so a scoring failure must not gate the query.
		score = 0
	}

	if !analysis.IsRelevant {
		return false, fmt.Sprintf("LLM deemed irrelevant. (Embedding Score: %.2f)", score)
	}
	return true, fmt.Sprintf("Relevant (Embedding Score: %.2f)", score)
}
