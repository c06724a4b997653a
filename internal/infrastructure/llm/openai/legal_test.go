package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kachastepien/Backoffice/internal/core/domain"
)

func TestAnalyzeRejectsEmptyInput(t *testing.T) {
	server := newChatServer(t, "{}")
	defer server.Close()

	analyst := NewLegalAnalyst(newTestClient(t, server), "gpt-4o", 2500, nil)
	_, err := analyst.Analyze(context.Background(), domain.AnalysisInput{}, nil)
	if !domain.IsKind(err, domain.ErrEmptyInput) {
		t.Fatalf("expected empty-input error, got %v", err)
	}
}

func TestAnalyzeParsesResponse(t *testing.T) {
	reply := `{
		"identified_documents": ["Zgłoszenie wypadku"],
		"summary": "Upadek z drabiny.",
		"criteria": {"suddenness": true, "externalCause": true, "injury": true, "workConnection": null},
		"legal_opinion_draft": "Projekt opinii."
	}`
	server := newChatServer(t, reply)
	defer server.Close()

	analyst := NewLegalAnalyst(newTestClient(t, server), "gpt-4o", 2500, nil)
	input, err := domain.NewAnalysisInput([]domain.UploadedDocument{
		{Name: "zgloszenie.pdf", Type: "application/pdf", Content: []byte("x")},
	}, "")
	if err != nil {
		t.Fatalf("build input: %v", err)
	}

	analysis, err := analyst.Analyze(context.Background(), input, []string{"tekst zgłoszenia"})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if analysis.Summary != "Upadek z drabiny." {
		t.Fatalf("unexpected summary %q", analysis.Summary)
	}
	if analysis.Criteria.WorkConnection != domain.VerdictUndetermined {
		t.Fatalf("null criterion must stay undetermined, got %v", analysis.Criteria.WorkConnection)
	}
	if analysis.Discrepancies == nil {
		t.Fatal("omitted collections must be normalized to empty")
	}
}

func TestAnalyzeFallsBackOnMalformedResponse(t *testing.T) {
	server := newChatServer(t, "przepraszam, nie mogę wygenerować JSON")
	defer server.Close()

	analyst := NewLegalAnalyst(newTestClient(t, server), "gpt-4o", 2500, nil)
	input, err := domain.NewAnalysisInput(nil, "opis zdarzenia")
	if err != nil {
		t.Fatalf("build input: %v", err)
	}

	analysis, err := analyst.Analyze(context.Background(), input, nil)
	if err != nil {
		t.Fatalf("malformed response must degrade, got error: %v", err)
	}
	if analysis.Summary != fallbackSummary {
		t.Fatalf("expected fallback summary, got %q", analysis.Summary)
	}
	if analysis.LegalOpinionDraft != fallbackOpinionDraft {
		t.Fatalf("expected fallback opinion, got %q", analysis.LegalOpinionDraft)
	}
	if !analysis.Criteria.AnyUndetermined() {
		t.Fatal("fallback criteria must stay undetermined")
	}
}

func TestAnalyzeSendsMultimodalContent(t *testing.T) {
	var captured []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{}"}}]}`))
	}))
	defer server.Close()

	analyst := NewLegalAnalyst(newTestClient(t, server), "gpt-4o", 2500, nil)
	input, err := domain.NewAnalysisInput([]domain.UploadedDocument{
		{Name: "zdjecie.jpg", Type: "image/jpeg", Content: []byte{0xff, 0xd8}},
		{Name: "zgloszenie.pdf", Type: "application/pdf", Content: []byte("pdf")},
	}, "")
	if err != nil {
		t.Fatalf("build input: %v", err)
	}

	if _, err := analyst.Analyze(context.Background(), input, []string{"ocr obrazka", "ocr pdf"}); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	var request struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string          `json:"role"`
			Content json.RawMessage `json:"content"`
		} `json:"messages"`
		ResponseFormat struct {
			Type string `json:"type"`
		} `json:"response_format"`
	}
	if err := json.Unmarshal(captured, &request); err != nil {
		t.Fatalf("decode captured request: %v", err)
	}
	if request.Model != "gpt-4o" {
		t.Fatalf("expected gpt-4o, got %s", request.Model)
	}
	if request.ResponseFormat.Type != "json_object" {
		t.Fatalf("expected json_object response format, got %s", request.ResponseFormat.Type)
	}
	if len(request.Messages) != 2 || request.Messages[1].Role != "user" {
		t.Fatalf("unexpected messages: %d", len(request.Messages))
	}

	var parts []contentPart
	if err := json.Unmarshal(request.Messages[1].Content, &parts); err != nil {
		t.Fatalf("decode user content: %v", err)
	}

	imageParts := 0
	body := string(request.Messages[1].Content)
	for _, part := range parts {
		if part.Type == "image_url" {
			imageParts++
			if !strings.HasPrefix(part.ImageURL.URL, "data:image/jpeg;base64,") {
				t.Fatalf("expected data URI for image, got %q", part.ImageURL.URL)
			}
		}
	}
	if imageParts != 1 {
		t.Fatalf("expected exactly one image part, got %d", imageParts)
	}
	if !strings.Contains(body, "DOKUMENT 1 (zdjecie.jpg)") || !strings.Contains(body, "DOKUMENT 2 (zgloszenie.pdf)") {
		t.Fatal("document delimiters are missing from the user content")
	}
	if !strings.Contains(body, "ocr obrazka") || !strings.Contains(body, "ocr pdf") {
		t.Fatal("extracted texts are missing from the user content")
	}
}
