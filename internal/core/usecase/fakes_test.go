package usecase

import (
	"context"
	"strings"

	"github.com/stewardai/adaptive-rag/internal/core/domain"
)

// scriptedGateway routes completions to canned responses by prompt shape.
type scriptedGateway struct {
	analysisResponses []string
	analysisErr       error
	analysisInputs    []string

	validationResponse string
	validationErr      error

	gradeResponses []string

	hallucinationResponses []string
	hallucinationCalls     int

	finalResponses []string

	generateResponses []string
	generateCalls     int
	generateErr       error

	fallbackResponse string
	fallbackErr      error
	fallbackCalls    int
}

func pop(responses *[]string) string {
	if len(*responses) == 0 {
		return ""
	}
	head := (*responses)[0]
	if len(*responses) > 1 {
		*responses = (*responses)[1:]
	}
	return head
}

func (g *scriptedGateway) Complete(_ context.Context, messages []domain.ChatMessage, _ float64) (string, error) {
	system := ""
	if len(messages) > 0 && messages[0].Role == domain.RoleSystem {
		system = messages[0].Content
	}
	user := messages[len(messages)-1].Content

	switch {
	case strings.Contains(system, "query analysis and restructuring"):
		g.analysisInputs = append(g.analysisInputs, user)
		if g.analysisErr != nil {
			return "", g.analysisErr
		}
		return pop(&g.analysisResponses), nil
	case strings.Contains(system, "rewrite validator"):
		if g.validationErr != nil {
			return "", g.validationErr
		}
		return g.validationResponse, nil
	case strings.Contains(system, "STRICT TRANSPARENCY"):
		g.fallbackCalls++
		if g.fallbackErr != nil {
			return "", g.fallbackErr
		}
		return g.fallbackResponse, nil
	case strings.Contains(system, "Educational medical assistant"):
		g.generateCalls++
		if g.generateErr != nil {
			return "", g.generateErr
		}
		return pop(&g.generateResponses), nil
	case strings.Contains(user, "Output GOOD or BAD"):
		return pop(&g.gradeResponses), nil
	case strings.Contains(user, "Unsupported claims?"):
		g.hallucinationCalls++
		return pop(&g.hallucinationResponses), nil
	case strings.Contains(user, "Does it answer?"):
		return pop(&g.finalResponses), nil
	}
	return "", nil
}

const testDomainText = "Rational antibiotic use, antimicrobial resistance, stewardship"

// fakeEmbedder answers domain-relevance lookups with a fixed score and pops
// coverage scores for everything else.
type fakeEmbedder struct {
	domainScore    float64
	coverageScores []float64
	simErr         error
	embedErr       error
	embedCalls     int
}

func (e *fakeEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	e.embedCalls++
	if e.embedErr != nil {
		return nil, e.embedErr
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (e *fakeEmbedder) Similarity(_ context.Context, _, b string) (float64, error) {
	if b == testDomainText {
		return e.domainScore, nil
	}
	if e.simErr != nil {
		return 0, e.simErr
	}
	if len(e.coverageScores) == 0 {
		return 0, nil
	}
	head := e.coverageScores[0]
	if len(e.coverageScores) > 1 {
		e.coverageScores = e.coverageScores[1:]
	}
	return head, nil
}

type fakeIndex struct {
	entries []domain.ContextEntry
	err     error
	panics  bool
	lastK   int
	calls   int
}

func (f *fakeIndex) Search(_ context.Context, _ []float32, k int) ([]domain.ContextEntry, error) {
	f.calls++
	f.lastK = k
	if f.panics {
		panic("index corrupted")
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.ContextEntry, len(f.entries))
	copy(out, f.entries)
	return out, nil
}

const relevantAnalysisJSON = `{"is_relevant": true, "category": "Antibiotic Class Reasoning", "answer_tone": "Structured Clinical", "rewritten_query": "amoxicillin dosing guidance"}`

func newTestOrchestrator(gw *scriptedGateway, emb *fakeEmbedder, idx *fakeIndex, maxRetries int) *Orchestrator {
	analyzer := NewQueryAnalyzer(gw, 0.1)
	relevance := NewRelevanceGate(emb, testDomainText)
	validator := NewRewriteValidator(gw)
	recon := NewReconstructionController(analyzer, relevance, validator)
	retriever := NewRetriever(emb, idx, 3)
	coverage := NewCoverageGuard(emb, 0.45, 1000, nil)
	grader := NewRetrievalGrader(gw, 0.1)
	hallucination := NewHallucinationChecker(gw, 0.1)
	finalCheck := NewFinalRelevanceChecker(gw, 0.1)
	generator := NewAnswerGenerator(gw, 0.1)
	fallback := NewFallbackGenerator(gw)
	return NewOrchestrator(recon, retriever, coverage, grader, hallucination, finalCheck, generator, fallback, maxRetries, nil)
}
