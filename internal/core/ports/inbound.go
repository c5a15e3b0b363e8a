package ports

import (
	"context"

	"github.com/stewardai/adaptive-rag/internal/core/domain"
)

// QueryPipeline is the single inbound operation of the system.
type QueryPipeline interface {
	Run(ctx context.Context, query string) domain.PipelineResult
}
