package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kachastepien/Backoffice/internal/core/domain"
)

// ConfidenceScorer is the second agent: a lighter model consuming only the
// legal-analysis JSON. Unlike the analyst there is no safe default here —
// a merged result without a score is meaningless, so failures propagate.
//
// The scoring policy is binding, not advisory: whatever the model returns is
// clamped to it afterwards, so the published invariants hold even when the
// light model drifts.
type ConfidenceScorer struct {
	client    *Client
	model     string
	maxTokens int
}

func NewConfidenceScorer(client *Client, model string, maxTokens int) *ConfidenceScorer {
	if maxTokens <= 0 {
		maxTokens = 300
	}
	return &ConfidenceScorer{client: client, model: model, maxTokens: maxTokens}
}

func (s *ConfidenceScorer) Score(ctx context.Context, analysis domain.LegalAnalysis) (domain.Calculation, error) {
	payload, err := json.Marshal(analysis)
	if err != nil {
		return domain.Calculation{}, fmt.Errorf("marshal analysis for scoring: %w", err)
	}

	raw, err := s.client.chatJSON(ctx, "confidence_scoring", s.model, calculatorPrompt, string(payload), s.maxTokens)
	if err != nil {
		return domain.Calculation{}, err
	}

	var calculation domain.Calculation
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &calculation); err != nil {
		return domain.Calculation{}, fmt.Errorf("parse calculation json: %w", err)
	}
	return applyScoringPolicy(analysis, calculation), nil
}

// applyScoringPolicy enforces the fixed rules: any undetermined criterion
// forces 0 / NEEDS_CLARIFICATION; any false criterion caps confidence below
// 20; discrepancies subtract 20 points; all-true with no discrepancies
// yields above 90 and ACCEPT.
func applyScoringPolicy(analysis domain.LegalAnalysis, calculation domain.Calculation) domain.Calculation {
	if analysis.Criteria.AnyUndetermined() {
		calculation.ConfidenceScore = 0
		calculation.RecommendationShort = domain.RecommendationNeedsClarification
		if strings.TrimSpace(calculation.ReasoningShort) == "" {
			calculation.ReasoningShort = "Brak danych do oceny przesłanek wypadku."
		}
		return calculation
	}

	score := calculation.ConfidenceScore
	if len(analysis.Discrepancies) > 0 {
		score -= 20
	}

	switch {
	case analysis.Criteria.AnyFalse():
		if score > 19 {
			score = 19
		}
		if calculation.RecommendationShort == domain.RecommendationAccept || !validRecommendation(calculation.RecommendationShort) {
			calculation.RecommendationShort = domain.RecommendationReject
		}
	case analysis.Criteria.AllTrue() && len(analysis.Discrepancies) == 0:
		if score < 91 {
			score = 91
		}
		calculation.RecommendationShort = domain.RecommendationAccept
	default:
		if !validRecommendation(calculation.RecommendationShort) {
			calculation.RecommendationShort = domain.RecommendationNeedsClarification
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	calculation.ConfidenceScore = score
	return calculation
}

func validRecommendation(r domain.Recommendation) bool {
	switch r {
	case domain.RecommendationAccept, domain.RecommendationReject, domain.RecommendationNeedsClarification:
		return true
	default:
		return false
	}
}
