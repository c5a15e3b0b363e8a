package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stewardai/adaptive-rag/internal/core/domain"
	"github.com/stewardai/adaptive-rag/internal/core/ports"
)

const defaultTopK = 3

// Retriever wraps vector search behind the query text.
type Retriever struct {
	embedder ports.Embedder
	index    ports.VectorIndex
	topK     int
}

func NewRetriever(embedder ports.Embedder, index ports.VectorIndex, topK int) *Retriever {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &Retriever{embedder: embedder, index: index, topK: topK}
}

func (r *Retriever) Retrieve(ctx context.Context, query string) ([]domain.ContextEntry, error) {
	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	contexts, err := r.index.Search(ctx, vector, r.topK)
	if err != nil {
		return nil, fmt.Errorf("search vector index: %w", err)
	}
	return contexts, nil
}

// CoverageGuard rejects retrieval results that are only weakly related to
// the query before any tokens are spent on generation.
type CoverageGuard struct {
	embedder    ports.Embedder
	threshold   float64
	prefixChars int
	logger      *slog.Logger
}

func NewCoverageGuard(embedder ports.Embedder, threshold float64, prefixChars int, logger *slog.Logger) *CoverageGuard {
	if prefixChars <= 0 {
		prefixChars = 1000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CoverageGuard{
		embedder:    embedder,
		threshold:   threshold,
		prefixChars: prefixChars,
		logger:      logger,
	}
}

// IsCovered reports whether at least one retrieved context clears the
// similarity threshold against the query. Only a bounded content prefix is
// compared, as a cost control. The threshold boundary is inclusive. A
// similarity failure fails OPEN: availability over precision.
func (g *CoverageGuard) IsCovered(ctx context.Context, query string, contexts []domain.ContextEntry) bool {
	if query == "" || len(contexts) == 0 {
		return false
	}

	maxScore := -1.0
	for _, entry := range contexts {
		content := entry.Content
		if len(content) > g.prefixChars {
			content = content[:g.prefixChars]
		}

		score, err := g.embedder.Similarity(ctx, query, content)
		if err != nil {
			g.logger.Warn("coverage_check_error", "error", err)
			return true
		}
		if score > maxScore {
			maxScore = score
		}
	}
	return maxScore >= g.threshold
}
