package domain

import "time"

type StepStatus string

const (
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
)

// TraceStep records the outcome of one pipeline phase within an attempt.
type TraceStep struct {
	Name   string         `json:"name"`
	Status StepStatus     `json:"status"`
	Data   map[string]any `json:"data,omitempty"`
}

// AttemptTrace accumulates the phases executed during one pipeline cycle.
type AttemptTrace struct {
	Cycle    int                   `json:"cycle"`
	Analysis *ReconstructionResult `json:"analysis,omitempty"`
	Steps    []TraceStep           `json:"steps"`
}

func (t *AttemptTrace) Append(name string, status StepStatus, data map[string]any) {
	t.Steps = append(t.Steps, TraceStep{Name: name, Status: status, Data: data})
}

// PipelineResult is the single outcome of a pipeline run.
//
// IsFallback=true implies generation never saw retrieved context.
// Success=false only on unrecoverable failure: gateway unavailable,
// first-attempt irrelevance, or exhaustion with a failed fallback.
type PipelineResult struct {
	Answer        string         `json:"answer"`
	Category      string         `json:"category"`
	Tone          string         `json:"tone"`
	Success       bool           `json:"success"`
	IsFallback    bool           `json:"is_fallback"`
	Logs          []string       `json:"logs,omitempty"`
	DetailedTrace []AttemptTrace `json:"detailed_trace,omitempty"`
}

// RunRecord is the archived form of a completed pipeline run.
type RunRecord struct {
	ID         string    `json:"id"`
	Query      string    `json:"query"`
	Answer     string    `json:"answer"`
	Category   string    `json:"category"`
	Tone       string    `json:"tone"`
	Success    bool      `json:"success"`
	IsFallback bool      `json:"is_fallback"`
	Attempts   int       `json:"attempts"`
	CreatedAt  time.Time `json:"created_at"`
}
