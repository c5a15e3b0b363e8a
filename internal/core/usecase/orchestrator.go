package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/stewardai/adaptive-rag/internal/core/domain"
)

const defaultMaxRetries = 2

// Fixed user-facing terminal messages.
const (
	msgServiceUnavailable = "Unable to process query due to high server load. Please try again in 1 minute."
	msgIrrelevant         = "I can only answer relevant questions."
	msgFallbackFailed     = "Failed to find a valid answer and fallback generation failed."
)

// Feedback reasons carried into the next attempt's reconstruction. Only the
// most recent one is retained.
const (
	feedbackNoCoverage   = "Knowledge Base has no strong match for this specific medical subdomain."
	feedbackBadRetrieval = "Retrieved documents were irrelevant."
	feedbackMissedIntent = "Answer missed intent."
)

// Trace step names, one per pipeline phase.
const (
	stepQueryAnalysis  = "Query Analysis"
	stepRetrieval      = "Document Retrieval"
	stepCoverageGuard  = "KB Coverage Guard"
	stepGrading        = "Retrieval Grading"
	stepGeneration     = "Answer Generation"
	stepHallucination  = "Hallucination Check"
	stepFinalRelevance = "Final Relevance Check"
)

// Orchestrator is the bounded retry state machine sequencing reconstruction,
// retrieval, gating, generation, and verification for one query.
type Orchestrator struct {
	recon         *ReconstructionController
	retriever     *Retriever
	coverage      *CoverageGuard
	grader        *RetrievalGrader
	hallucination *HallucinationChecker
	finalCheck    *FinalRelevanceChecker
	generator     *AnswerGenerator
	fallback      *FallbackGenerator

	maxRetries int
	logger     *slog.Logger
}

func NewOrchestrator(
	recon *ReconstructionController,
	retriever *Retriever,
	coverage *CoverageGuard,
	grader *RetrievalGrader,
	hallucination *HallucinationChecker,
	finalCheck *FinalRelevanceChecker,
	generator *AnswerGenerator,
	fallback *FallbackGenerator,
	maxRetries int,
	logger *slog.Logger,
) *Orchestrator {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		recon:         recon,
		retriever:     retriever,
		coverage:      coverage,
		grader:        grader,
		hallucination: hallucination,
		finalCheck:    finalCheck,
		generator:     generator,
		fallback:      fallback,
		maxRetries:    maxRetries,
		logger:        logger,
	}
}

// Run executes the full gated pipeline for one query and always returns a
// terminal result. Unexpected faults are intercepted here, once, and never
// propagate to the caller.
func (o *Orchestrator) Run(ctx context.Context, query string) (result domain.PipelineResult) {
	var logs []string
	var trace []domain.AttemptTrace

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("pipeline_panic", "panic", r)
			logs = append(logs, fmt.Sprintf("Unexpected fault: %v", r))
			logs = append(logs, strings.Split(string(debug.Stack()), "\n")...)
			result = o.failure(fmt.Sprintf("Pipeline failure: %v", r), logs, trace)
		}
	}()

	feedback := ""
	lastCategory := domain.DefaultCategory
	lastTone := domain.DefaultTone

	for attempt := 1; attempt <= o.maxRetries; attempt++ {
		logs = append(logs, fmt.Sprintf("--- Cycle %d ---", attempt))
		o.logger.Info("pipeline_cycle", "cycle", attempt, "feedback", feedback)

		recon, err := o.recon.Reconstruct(ctx, query, feedback)
		if err != nil {
			// Service unavailable is terminal regardless of remaining budget.
			logs = append(logs, "LLM service unavailable (rate limit or error).")
			o.logger.Warn("pipeline_gateway_unavailable", "cycle", attempt, "error", err)
			return o.failure(msgServiceUnavailable, logs, nil)
		}

		if !recon.IsRelevant {
			if attempt == 1 {
				logs = append(logs, recon.Logs...)
				return o.failure(msgIrrelevant, logs, nil)
			}
			// A later-attempt irrelevance verdict is advisory, not fatal.
			logs = append(logs, "Re-evaluated as locally irrelevant. Continuing retry loop...")
			continue
		}

		logs = append(logs, recon.Logs...)
		lastCategory, lastTone = recon.Category, recon.Tone

		attemptTrace := domain.AttemptTrace{Cycle: attempt, Analysis: recon}
		attemptTrace.Append(stepQueryAnalysis, domain.StepCompleted, map[string]any{"analysis": recon})

		contexts, err := o.retriever.Retrieve(ctx, recon.FinalQuery)
		if err != nil {
			attemptTrace.Append(stepRetrieval, domain.StepFailed, map[string]any{"error": err.Error()})
			trace = append(trace, attemptTrace)
			logs = append(logs, "Unexpected fault: "+err.Error())
			o.logger.Error("pipeline_fault", "cycle", attempt, "error", err)
			return o.failure("Pipeline failure: "+err.Error(), logs, trace)
		}
		sources := make([]string, 0, len(contexts))
		for _, entry := range contexts {
			sources = append(sources, entry.Source)
		}
		attemptTrace.Append(stepRetrieval, domain.StepCompleted, map[string]any{
			"count":   len(contexts),
			"sources": sources,
		})

		if covered := o.coverage.IsCovered(ctx, recon.FinalQuery, contexts); !covered {
			attemptTrace.Append(stepCoverageGuard, domain.StepFailed, map[string]any{"is_covered": false})
			logs = append(logs, "KB coverage failure (weak match). Retrying...")
			feedback = feedbackNoCoverage
			trace = append(trace, attemptTrace)
			continue
		}
		attemptTrace.Append(stepCoverageGuard, domain.StepCompleted, map[string]any{"is_covered": true})

		grade := o.grader.Grade(ctx, recon.FinalQuery, contexts)
		if grade == GradeBad {
			attemptTrace.Append(stepGrading, domain.StepFailed, map[string]any{"grade": grade})
			logs = append(logs, "Retrieval graded BAD. Retrying...")
			feedback = feedbackBadRetrieval
			trace = append(trace, attemptTrace)
			continue
		}
		attemptTrace.Append(stepGrading, domain.StepCompleted, map[string]any{"grade": grade})

		answer, err := o.generator.Generate(ctx, recon.FinalQuery, contexts, recon.Category, recon.Tone)
		if err != nil {
			attemptTrace.Append(stepGeneration, domain.StepFailed, map[string]any{"error": err.Error()})
			trace = append(trace, attemptTrace)
			logs = append(logs, "Unexpected fault: "+err.Error())
			o.logger.Error("pipeline_fault", "cycle", attempt, "error", err)
			return o.failure("Pipeline failure: "+err.Error(), logs, trace)
		}
		attemptTrace.Append(stepGeneration, domain.StepCompleted, map[string]any{"raw_length": len(answer)})

		verdict := o.hallucination.Check(ctx, answer, contexts)
		attemptTrace.Append(stepHallucination, domain.StepCompleted, map[string]any{"is_hallucination": verdict})
		if verdict == VerdictYes {
			// One regeneration with identical inputs; the second answer is
			// used as-is, with no re-verification.
			logs = append(logs, "Hallucination detected. Regenerating...")
			answer, err = o.generator.Generate(ctx, recon.FinalQuery, contexts, recon.Category, recon.Tone)
			if err != nil {
				trace = append(trace, attemptTrace)
				logs = append(logs, "Unexpected fault: "+err.Error())
				o.logger.Error("pipeline_fault", "cycle", attempt, "error", err)
				return o.failure("Pipeline failure: "+err.Error(), logs, trace)
			}
		}

		relevant := o.finalCheck.Check(ctx, answer, query)
		if relevant == VerdictNo {
			attemptTrace.Append(stepFinalRelevance, domain.StepFailed, map[string]any{"is_relevant": relevant})
			logs = append(logs, "Answer not relevant to intent. Retrying...")
			feedback = feedbackMissedIntent
			trace = append(trace, attemptTrace)
			continue
		}
		attemptTrace.Append(stepFinalRelevance, domain.StepCompleted, map[string]any{"is_relevant": relevant})

		logs = append(logs, "Success.")
		trace = append(trace, attemptTrace)
		o.logger.Info("pipeline_success", "cycle", attempt, "category", recon.Category)
		return domain.PipelineResult{
			Answer:        answer,
			Category:      recon.Category,
			Tone:          recon.Tone,
			Success:       true,
			Logs:          logs,
			DetailedTrace: trace,
		}
	}

	logs = append(logs, "Max retries exhausted. Generating fallback...")
	o.logger.Warn("pipeline_exhausted", "max_retries", o.maxRetries)

	fallbackAnswer, err := o.fallback.Generate(ctx, query, lastCategory, lastTone)
	if err != nil {
		logs = append(logs, "Fallback generation failed.")
		return o.failure(msgFallbackFailed, logs, trace)
	}

	logs = append(logs, "Fallback generated.")
	return domain.PipelineResult{
		Answer:        fallbackAnswer,
		Category:      lastCategory,
		Tone:          lastTone,
		Success:       true,
		IsFallback:    true,
		Logs:          logs,
		DetailedTrace: trace,
	}
}

func (o *Orchestrator) failure(answer string, logs []string, trace []domain.AttemptTrace) domain.PipelineResult {
	return domain.PipelineResult{
		Answer:        answer,
		Category:      domain.DefaultCategory,
		Tone:          domain.DefaultTone,
		Success:       false,
		Logs:          logs,
		DetailedTrace: trace,
	}
}
