package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kachastepien/Backoffice/internal/core/domain"
	"github.com/kachastepien/Backoffice/internal/observability/metrics"
)

// Fixed safe-default texts published when the analysis response cannot be
// parsed. The pipeline continues with this object instead of failing.
const (
	fallbackSummary      = "Błąd przetwarzania odpowiedzi AI."
	fallbackOpinionDraft = "Nie udało się wygenerować opinii."
)

// LegalAnalyst is the first agent: a multimodal pass over every document
// (vision for images, OCR text for everything) producing the structured
// legal analysis.
type LegalAnalyst struct {
	client    *Client
	model     string
	maxTokens int

	metrics *metrics.PipelineMetrics
	service string
}

func NewLegalAnalyst(client *Client, model string, maxTokens int, pipelineMetrics *metrics.PipelineMetrics) *LegalAnalyst {
	if maxTokens <= 0 {
		maxTokens = 2500
	}
	return &LegalAnalyst{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
		metrics:   pipelineMetrics,
		service:   "backoffice-api",
	}
}

func (a *LegalAnalyst) Analyze(ctx context.Context, input domain.AnalysisInput, extractedTexts []string) (domain.LegalAnalysis, error) {
	if input.IsZero() {
		return domain.LegalAnalysis{}, domain.WrapError(domain.ErrEmptyInput, "legal analysis", errors.New("no analysis input"))
	}

	content := buildAnalysisContent(input, extractedTexts)
	raw, err := a.client.chatJSON(ctx, "legal_analysis", a.model, analystPrompt, content, a.maxTokens)
	if err != nil {
		return domain.LegalAnalysis{}, err
	}

	var analysis domain.LegalAnalysis
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &analysis); err != nil {
		// Malformed model output is recoverable: the caseworker still gets
		// a structured, clearly-degraded result to review.
		slog.Warn("legal_analysis_fallback", "error", err)
		a.metrics.RecordAnalysisFallback(a.service)
		return FallbackAnalysis(), nil
	}

	analysis.Normalize()
	return analysis, nil
}

// FallbackAnalysis is the fixed safe-default object: no identified
// documents, all criteria undetermined, fixed failure texts.
func FallbackAnalysis() domain.LegalAnalysis {
	return domain.LegalAnalysis{
		IdentifiedDocuments:         []string{},
		Summary:                     fallbackSummary,
		Discrepancies:               []string{},
		MissingDocumentsSuggestions: []string{},
		MedicalConsultationNeeded:   false,
		Criteria:                    domain.Criteria{},
		CriteriaExplanation:         map[string]string{},
		LegalOpinionDraft:           fallbackOpinionDraft,
	}
}

// buildAnalysisContent assembles the multimodal user message. Documents are
// concatenated in upload order with explicit delimiters so the model can
// attribute findings to a specific source. Images contribute both a vision
// part and their OCR text; other documents contribute OCR text only.
func buildAnalysisContent(input domain.AnalysisInput, extractedTexts []string) []contentPart {
	if text, ok := input.Text(); ok {
		return []contentPart{textPart(text)}
	}

	docs, _ := input.Documents()
	parts := make([]contentPart, 0, len(docs)*4)
	for i, doc := range docs {
		parts = append(parts, textPart(fmt.Sprintf("\n--- DOKUMENT %d (%s) ---\n", i+1, doc.Name)))
		if doc.IsImage() {
			parts = append(parts, imagePart(documentDataURI(doc)))
		}
		extracted := ""
		if i < len(extractedTexts) {
			extracted = extractedTexts[i]
		}
		parts = append(parts, textPart(fmt.Sprintf("ODCZYT OCR (tekst): \n%s\n", extracted)))
		parts = append(parts, textPart("\n-----------------------------------\n"))
	}
	return parts
}

func documentDataURI(doc domain.UploadedDocument) string {
	if strings.HasPrefix(string(doc.Content), "data:") {
		return string(doc.Content)
	}
	mimeType := doc.Type
	if mimeType == "" {
		mimeType = "image/png"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(doc.Content)
}
