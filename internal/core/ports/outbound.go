package ports

import (
	"context"

	"github.com/stewardai/adaptive-rag/internal/core/domain"
)

// LLMGateway performs one text completion. A failed or exhausted call
// surfaces as domain.ErrGatewayUnavailable; callers apply their own
// fail-open/fail-closed interpretation.
type LLMGateway interface {
	Complete(ctx context.Context, messages []domain.ChatMessage, temperature float64) (string, error)
}

// Embedder builds query vectors and compares texts semantically.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Similarity(ctx context.Context, a, b string) (float64, error)
}

// VectorIndex returns the top-k nearest knowledge base entries.
// Empty index slots are excluded from the output.
type VectorIndex interface {
	Search(ctx context.Context, vector []float32, k int) ([]domain.ContextEntry, error)
}

// RunArchive persists completed pipeline runs.
type RunArchive interface {
	SaveRun(ctx context.Context, run *domain.RunRecord) error
	GetRunByID(ctx context.Context, id string) (*domain.RunRecord, error)
}

// RunEventPublisher emits run-completed audit events.
type RunEventPublisher interface {
	PublishRunCompleted(ctx context.Context, run domain.RunRecord) error
}

// RunEventStream consumes run-completed audit events.
type RunEventStream interface {
	SubscribeRunCompleted(ctx context.Context, handler func(context.Context, domain.RunRecord) error) error
}
