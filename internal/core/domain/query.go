package domain

import "strings"

const (
	DefaultCategory = "General"
	DefaultTone     = "Simplified Educational"
)

// Analysis is the structured intent metadata produced by the query analyzer.
type Analysis struct {
	IsRelevant       bool   `json:"is_relevant"`
	Category         string `json:"category"`
	AnswerTone       string `json:"answer_tone"`
	OriginalQuery    string `json:"original_query"`
	RewrittenQuery   string `json:"rewritten_query"`
	RewriteRationale string `json:"rewrite_rationale"`
}

// DefaultAnalysis is the safe substitute when the analyzer output cannot be
// parsed: relevant, default category/tone, query passed through unmodified.
func DefaultAnalysis(query string) Analysis {
	return Analysis{
		IsRelevant:     true,
		Category:       DefaultCategory,
		AnswerTone:     DefaultTone,
		OriginalQuery:  query,
		RewrittenQuery: query,
	}
}

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// ValidationVerdict is the rewrite safety validator output.
type ValidationVerdict struct {
	RiskLevel RiskLevel `json:"risk_level"`
}

// ReconstructionResult is scoped to a single pipeline attempt.
type ReconstructionResult struct {
	IsRelevant bool     `json:"is_relevant"`
	FinalQuery string   `json:"final_query"`
	Category   string   `json:"category"`
	Tone       string   `json:"tone"`
	Logs       []string `json:"logs"`
}

// ContextEntry is one retrieved knowledge base hit.
type ContextEntry struct {
	Source  string `json:"source"`
	Content string `json:"content"`
}

func (e ContextEntry) Formatted() string {
	var b strings.Builder
	b.WriteString("Source: ")
	b.WriteString(e.Source)
	b.WriteString("\nContent: ")
	b.WriteString(e.Content)
	return b.String()
}

type ChatRole string

const (
	RoleSystem ChatRole = "system"
	RoleUser   ChatRole = "user"
)

// ChatMessage is one turn sent to the LLM gateway.
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

func SystemMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleSystem, Content: content}
}

func UserMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleUser, Content: content}
}
