package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stewardai/adaptive-rag/internal/core/domain"
)

func newTestController(gw *scriptedGateway, emb *fakeEmbedder) *ReconstructionController {
	return NewReconstructionController(
		NewQueryAnalyzer(gw, 0.1),
		NewRelevanceGate(emb, testDomainText),
		NewRewriteValidator(gw),
	)
}

func TestReconstructAppendsFeedbackVerbatim(t *testing.T) {
	gw := &scriptedGateway{
		analysisResponses:  []string{relevantAnalysisJSON},
		validationResponse: `{"risk_level": "low"}`,
	}
	ctrl := newTestController(gw, &fakeEmbedder{domainScore: 0.7})

	if _, err := ctrl.Reconstruct(context.Background(), "my query", "be more specific"); err != nil {
		t.Fatalf("Reconstruct() error = %v", err)
	}
	if got := gw.analysisInputs[0]; !strings.Contains(got, "my query (Fix: be more specific)") {
		t.Fatalf("feedback must be appended as a verbatim annotation, got %q", got)
	}
}

func TestReconstructIrrelevantCarriesScoreInLogsOnly(t *testing.T) {
	gw := &scriptedGateway{
		analysisResponses: []string{`{"is_relevant": false}`},
	}
	// A high domain score must not override the analyzer's verdict.
	ctrl := newTestController(gw, &fakeEmbedder{domainScore: 0.99})

	recon, err := ctrl.Reconstruct(context.Background(), "q", "")
	if err != nil {
		t.Fatalf("Reconstruct() error = %v", err)
	}
	if recon.IsRelevant {
		t.Fatalf("analyzer verdict is authoritative; result must be irrelevant")
	}
	if len(recon.Logs) != 1 || !strings.Contains(recon.Logs[0], "0.99") {
		t.Fatalf("similarity score must be logged, got %v", recon.Logs)
	}
}

func TestReconstructGatewayFailureIsDistinctSignal(t *testing.T) {
	gw := &scriptedGateway{analysisErr: domain.ErrGatewayUnavailable}
	ctrl := newTestController(gw, &fakeEmbedder{})

	recon, err := ctrl.Reconstruct(context.Background(), "q", "")
	if err == nil {
		t.Fatalf("expected error, never an irrelevant result")
	}
	if recon != nil {
		t.Fatalf("unavailable gateway must not produce a result")
	}
	if !domain.IsKind(err, domain.ErrGatewayUnavailable) {
		t.Fatalf("expected ErrGatewayUnavailable, got %v", err)
	}
}

func TestReconstructFillsStrategyLogs(t *testing.T) {
	gw := &scriptedGateway{
		analysisResponses:  []string{relevantAnalysisJSON},
		validationResponse: `{"risk_level": "low"}`,
	}
	ctrl := newTestController(gw, &fakeEmbedder{domainScore: 0.7})

	recon, err := ctrl.Reconstruct(context.Background(), "amoxicillin dosage?", "")
	if err != nil {
		t.Fatalf("Reconstruct() error = %v", err)
	}
	if !recon.IsRelevant {
		t.Fatalf("expected relevant result")
	}
	if recon.FinalQuery != "amoxicillin dosing guidance" {
		t.Fatalf("expected accepted rewrite, got %q", recon.FinalQuery)
	}
	if len(recon.Logs) != 4 {
		t.Fatalf("expected category/tone/strategy/final-query logs, got %v", recon.Logs)
	}
	if recon.Logs[2] != "Strategy: Rewrite Accepted" {
		t.Fatalf("unexpected strategy log %q", recon.Logs[2])
	}
}
