package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kachastepien/Backoffice/internal/core/domain"
)

// MetadataExtractor reads registration-form fields out of a single document.
// It sees the document image (when it is one) plus whatever OCR text the
// pre-fill flow managed to obtain.
type MetadataExtractor struct {
	client    *Client
	model     string
	maxTokens int
}

func NewMetadataExtractor(client *Client, model string, maxTokens int) *MetadataExtractor {
	if maxTokens <= 0 {
		maxTokens = 300
	}
	return &MetadataExtractor{client: client, model: model, maxTokens: maxTokens}
}

func (e *MetadataExtractor) ExtractMetadata(ctx context.Context, doc domain.UploadedDocument, ocrText string) (domain.CasePrefill, error) {
	parts := []contentPart{
		textPart(fmt.Sprintf("NAZWA PLIKU: %s\n", doc.Name)),
	}
	if doc.IsImage() {
		parts = append(parts, imagePart(documentDataURI(doc)))
	}
	parts = append(parts, textPart(fmt.Sprintf("ODCZYT OCR (tekst): \n%s\n", ocrText)))

	raw, err := e.client.chatJSON(ctx, "metadata_prefill", e.model, metadataPrompt, parts, e.maxTokens)
	if err != nil {
		return domain.CasePrefill{}, err
	}

	var prefill domain.CasePrefill
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &prefill); err != nil {
		return domain.CasePrefill{}, fmt.Errorf("parse prefill json: %w", err)
	}

	prefill.ApplicantPESEL = strings.ReplaceAll(prefill.ApplicantPESEL, " ", "")
	return prefill, nil
}
