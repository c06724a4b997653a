package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kachastepien/Backoffice/internal/core/domain"
)

// MedicalAdviser answers on-demand consultation requests from a caseworker.
// It runs outside the analysis pipeline, so a failure here never touches
// case analysis state.
type MedicalAdviser struct {
	client    *Client
	model     string
	maxTokens int
}

func NewMedicalAdviser(client *Client, model string, maxTokens int) *MedicalAdviser {
	if maxTokens <= 0 {
		maxTokens = 1000
	}
	return &MedicalAdviser{client: client, model: model, maxTokens: maxTokens}
}

func (m *MedicalAdviser) Consult(ctx context.Context, question, caseContext string) (domain.MedicalOpinion, error) {
	userContent := fmt.Sprintf("KONTEKST SPRAWY:\n%s\n\nPYTANIE DO LEKARZA:\n%s", caseContext, question)

	raw, err := m.client.chatJSON(ctx, "medical_consultation", m.model, medicalPrompt, userContent, m.maxTokens)
	if err != nil {
		return domain.MedicalOpinion{}, err
	}

	var opinion domain.MedicalOpinion
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &opinion); err != nil {
		return domain.MedicalOpinion{}, fmt.Errorf("parse medical opinion json: %w", err)
	}
	return opinion, nil
}
