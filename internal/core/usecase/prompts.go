package usecase

import (
	"fmt"
	"strings"

	"github.com/stewardai/adaptive-rag/internal/core/domain"
)

const analysisSystemPrompt = `You are a query analysis and restructuring engine for an Adaptive RAG system.
CRITICAL RULES:
- Query rewriting MUST be LOSSLESS.
- Do NOT add entities, tools, datasets, years, domains, or assumptions.
- Output VALID JSON ONLY.

REQUIRED JSON OUTPUT CONTRACT:
{
  "is_relevant": true,
  "category": "<Infection Context Explanation|Antibiotic Class Reasoning|Resistance Mechanism|Stewardship Principle|Safety / Adverse Effects|Guideline Explanation>",
  "answer_tone": "<Simplified Educational|Structured Clinical>",
  "original_query": "...",
  "rewritten_query": "...",
  "rewrite_rationale": "..."
}`

const validationSystemPrompt = `You are a query rewrite validator.
Check for ADDED entities, CHANGED constraints, or HALLUCINATIONS.
Output JSON: { "risk_level": "low" | "medium" | "high" }`

const fallbackSystemPrompt = `You are a medical education assistant operating in STRICT TRANSPARENCY MODE.

RULES:
- The system has NO relevant data in its local medical knowledge base
- You MUST explicitly disclose this limitation to the user
- You may ONLY provide general, high-level educational information
- You MUST NOT claim guideline support, studies, or evidence
- You may provide prescriptions, dosages, or treatment plans but specify to be cautious and warn them
- You MUST NOT claim to be a doctor or medical professional
- You MUST NOT sound authoritative or definitive

MANDATORY OUTPUT STRUCTURE:

1. A clear upfront disclosure:
   "There is no relevant data available in the current medical knowledge base."

2. A reassurance sentence:
   Explain that you can still offer general educational information.

3. A safe, general explanation related to the user's question:
   - Use common medical understanding
   - Avoid numbers, protocols, or recommendations
   - Avoid certainty

4. A closing safety note:
   Encourage consulting a qualified healthcare professional.

FOLLOW THIS STRUCTURE FOR THE OUTPUT: provide the output as a paragraph each with 4 lines.

STYLE:
- Match the provided tone
- Match the provided category
- Calm, educational, and transparent

DO NOT:
- Output JSON
- Mention pipelines, retries, indexes, or retrieval
- Cite sources
- Hallucinate facts`

func joinContexts(contexts []domain.ContextEntry) string {
	parts := make([]string, 0, len(contexts))
	for _, ctx := range contexts {
		parts = append(parts, ctx.Formatted())
	}
	return strings.Join(parts, "\n")
}

func buildAnalysisMessages(input string) []domain.ChatMessage {
	return []domain.ChatMessage{
		domain.SystemMessage(analysisSystemPrompt),
		domain.UserMessage("Query: " + input),
	}
}

func buildValidationMessages(original, rewritten string) []domain.ChatMessage {
	return []domain.ChatMessage{
		domain.SystemMessage(validationSystemPrompt),
		domain.UserMessage(fmt.Sprintf("Original: %s\nRewritten: %s", original, rewritten)),
	}
}

func buildGradingMessages(query string, contexts []domain.ContextEntry) []domain.ChatMessage {
	prompt := fmt.Sprintf("Query: %s\nContext: %s\nRelevant? Output GOOD or BAD.", query, joinContexts(contexts))
	return []domain.ChatMessage{domain.UserMessage(prompt)}
}

func buildHallucinationMessages(answer string, contexts []domain.ContextEntry) []domain.ChatMessage {
	prompt := fmt.Sprintf("Context: %s\nAnswer: %s\nUnsupported claims? Output YES or NO.", joinContexts(contexts), answer)
	return []domain.ChatMessage{domain.UserMessage(prompt)}
}

func buildFinalCheckMessages(answer, originalQuery string) []domain.ChatMessage {
	prompt := fmt.Sprintf("Query: %s\nAnswer: %s\nDoes it answer? Output YES or NO.", originalQuery, answer)
	return []domain.ChatMessage{domain.UserMessage(prompt)}
}

func buildGenerationMessages(query string, contexts []domain.ContextEntry, category, tone string) []domain.ChatMessage {
	system := fmt.Sprintf("Educational medical assistant. Category: %s. Tone: %s. No prescriptions.", category, tone)
	user := fmt.Sprintf("Context: %s\nQuestion: %s", joinContexts(contexts), query)
	return []domain.ChatMessage{
		domain.SystemMessage(system),
		domain.UserMessage(user),
	}
}

func buildFallbackMessages(query, category, tone string) []domain.ChatMessage {
	user := fmt.Sprintf("Category: %s\nTone: %s\nQuestion: %s", category, tone, query)
	return []domain.ChatMessage{
		domain.SystemMessage(fallbackSystemPrompt),
		domain.UserMessage(user),
	}
}
