package usecase

import (
	"context"
	"fmt"

	"github.com/stewardai/adaptive-rag/internal/core/domain"
	"github.com/stewardai/adaptive-rag/internal/core/ports"
)

const fallbackTemperature = 0.3

// AnswerGenerator produces the grounded, tone-aware answer.
type AnswerGenerator struct {
	gateway     ports.LLMGateway
	temperature float64
}

func NewAnswerGenerator(gateway ports.LLMGateway, temperature float64) *AnswerGenerator {
	return &AnswerGenerator{gateway: gateway, temperature: temperature}
}

func (g *AnswerGenerator) Generate(ctx context.Context, query string, contexts []domain.ContextEntry, category, tone string) (string, error) {
	answer, err := g.gateway.Complete(ctx, buildGenerationMessages(query, contexts, category, tone), g.temperature)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return answer, nil
}

// FallbackGenerator produces the strict-transparency answer used once the
// retry budget is exhausted. It never sees retrieved context.
type FallbackGenerator struct {
	gateway ports.LLMGateway
}

func NewFallbackGenerator(gateway ports.LLMGateway) *FallbackGenerator {
	return &FallbackGenerator{gateway: gateway}
}

func (g *FallbackGenerator) Generate(ctx context.Context, query, category, tone string) (string, error) {
	answer, err := g.gateway.Complete(ctx, buildFallbackMessages(query, category, tone), fallbackTemperature)
	if err != nil {
		return "", fmt.Errorf("generate fallback: %w", err)
	}
	return answer, nil
}
