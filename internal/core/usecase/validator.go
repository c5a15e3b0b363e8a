package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stewardai/adaptive-rag/internal/core/domain"
	"github.com/stewardai/adaptive-rag/internal/core/ports"
)

// RewriteValidator judges whether a query rewrite added entities, changed
// constraints, or hallucinated. An unavailable gateway or unparseable
// verdict is treated as high risk so the original query wins.
type RewriteValidator struct {
	gateway ports.LLMGateway
}

func NewRewriteValidator(gateway ports.LLMGateway) *RewriteValidator {
	return &RewriteValidator{gateway: gateway}
}

func (v *RewriteValidator) Validate(ctx context.Context, original, rewritten string) domain.ValidationVerdict {
	response, err := v.gateway.Complete(ctx, buildValidationMessages(original, rewritten), 0.0)
	if err != nil {
		return domain.ValidationVerdict{RiskLevel: domain.RiskHigh}
	}

	var verdict domain.ValidationVerdict
	if err := json.Unmarshal([]byte(extractJSONObject(response)), &verdict); err != nil {
		return domain.ValidationVerdict{RiskLevel: domain.RiskHigh}
	}
	if verdict.RiskLevel == "" {
		verdict.RiskLevel = domain.RiskHigh
	}
	return verdict
}

// SelectQueryStrategy picks the query to retrieve with. The rewrite is used
// only when it differs from the original and carries low risk.
func SelectQueryStrategy(original, rewritten string, verdict domain.ValidationVerdict) (string, string) {
	if normalizeQuery(original) == normalizeQuery(rewritten) {
		return original, "Identical"
	}

	risk := domain.RiskLevel(strings.ToLower(string(verdict.RiskLevel)))
	if risk == domain.RiskMedium || risk == domain.RiskHigh {
		return original, fmt.Sprintf("Fallback (Risk: %s)", risk)
	}
	return rewritten, "Rewrite Accepted"
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}
