package usecase

import (
	"context"
	"strings"

	"github.com/stewardai/adaptive-rag/internal/core/domain"
	"github.com/stewardai/adaptive-rag/internal/core/ports"
)

// Verdict values returned by the binary LLM gates. The underlying prompts
// answer in free text; each gate classifies by case-insensitive substring
// presence of its positive token. The defaults on a missing or ambiguous
// response are deliberately asymmetric: grading and final relevance fail
// closed, hallucination fails open.
const (
	GradeGood = "GOOD"
	GradeBad  = "BAD"

	VerdictYes = "YES"
	VerdictNo  = "NO"
)

func containsToken(response, token string) bool {
	return strings.Contains(strings.ToUpper(response), token)
}

// RetrievalGrader judges whether the retrieved documents can answer the query.
type RetrievalGrader struct {
	gateway     ports.LLMGateway
	temperature float64
}

func NewRetrievalGrader(gateway ports.LLMGateway, temperature float64) *RetrievalGrader {
	return &RetrievalGrader{gateway: gateway, temperature: temperature}
}

func (g *RetrievalGrader) Grade(ctx context.Context, query string, contexts []domain.ContextEntry) string {
	response, err := g.gateway.Complete(ctx, buildGradingMessages(query, contexts), g.temperature)
	return classifyGrade(response, err)
}

// classifyGrade fails closed: anything short of an explicit GOOD is BAD.
func classifyGrade(response string, err error) string {
	if err == nil && containsToken(response, GradeGood) {
		return GradeGood
	}
	return GradeBad
}

// HallucinationChecker verifies the answer is grounded in the contexts.
type HallucinationChecker struct {
	gateway     ports.LLMGateway
	temperature float64
}

func NewHallucinationChecker(gateway ports.LLMGateway, temperature float64) *HallucinationChecker {
	return &HallucinationChecker{gateway: gateway, temperature: temperature}
}

// Check returns YES when unsupported claims were detected.
func (c *HallucinationChecker) Check(ctx context.Context, answer string, contexts []domain.ContextEntry) string {
	response, err := c.gateway.Complete(ctx, buildHallucinationMessages(answer, contexts), c.temperature)
	return classifyHallucination(response, err)
}

// classifyHallucination fails open: a missing verdict counts as grounded.
func classifyHallucination(response string, err error) string {
	if err == nil && containsToken(response, VerdictYes) {
		return VerdictYes
	}
	return VerdictNo
}

// FinalRelevanceChecker verifies the answer addresses the original question.
type FinalRelevanceChecker struct {
	gateway     ports.LLMGateway
	temperature float64
}

func NewFinalRelevanceChecker(gateway ports.LLMGateway, temperature float64) *FinalRelevanceChecker {
	return &FinalRelevanceChecker{gateway: gateway, temperature: temperature}
}

// Check returns YES when the answer addresses the original query.
func (c *FinalRelevanceChecker) Check(ctx context.Context, answer, originalQuery string) string {
	response, err := c.gateway.Complete(ctx, buildFinalCheckMessages(answer, originalQuery), c.temperature)
	return classifyFinalRelevance(response, err)
}

// classifyFinalRelevance fails closed: a missing verdict counts as off-intent.
func classifyFinalRelevance(response string, err error) string {
	if err == nil && containsToken(response, VerdictYes) {
		return VerdictYes
	}
	return VerdictNo
}
