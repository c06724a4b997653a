// Package unstructured adapts the external document-text-extraction service.
// Per-document timeouts and service-side failures come back as placeholder
// text so a single bad scan never aborts a whole analysis run; only
// transport-level errors reach the orchestrator.
package unstructured

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kachastepien/Backoffice/internal/core/domain"
	"github.com/kachastepien/Backoffice/internal/observability/metrics"
)

// PlaceholderOCRTimeout replaces the text of a document whose extraction hit
// the deadline. The run continues; the caseworker verifies that file by hand.
const PlaceholderOCRTimeout = "[Błąd: Przekroczono czas oczekiwania na OCR (dokument zbyt złożony lub nieczytelny). Wymagana weryfikacja ręczna.]"

// ReadFailurePlaceholder replaces the text of a document the service refused.
func ReadFailurePlaceholder(filename string) string {
	return fmt.Sprintf("[Błąd odczytu pliku %s]", filename)
}

const (
	defaultBaseURL  = "https://api.unstructuredapp.io"
	defaultStrategy = "hi_res"
	defaultLanguage = "pol"
	defaultTimeout  = 12 * time.Second

	// A PDF text layer shorter than this is treated as decorative (page
	// numbers, stamps) and the document still goes through OCR.
	defaultMinTextLayerRunes = 80
)

type Options struct {
	BaseURL           string
	Language          string
	Strategy          string
	Timeout           time.Duration
	MinTextLayerRunes int
	HTTPClient        *http.Client
	Metrics           *metrics.PipelineMetrics
}

type Extractor struct {
	baseURL      string
	apiKey       string
	language     string
	strategy     string
	timeout      time.Duration
	minTextLayer int

	httpClient *http.Client
	metrics    *metrics.PipelineMetrics
	service    string
}

func New(apiKey string, opts Options) (*Extractor, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, domain.WrapError(domain.ErrConfiguration, "init extraction adapter", errors.New("missing extraction service credential"))
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	language := opts.Language
	if language == "" {
		language = defaultLanguage
	}
	strategy := opts.Strategy
	if strategy == "" {
		strategy = defaultStrategy
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	minTextLayer := opts.MinTextLayerRunes
	if minTextLayer <= 0 {
		minTextLayer = defaultMinTextLayerRunes
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Extractor{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		language:     language,
		strategy:     strategy,
		timeout:      timeout,
		minTextLayer: minTextLayer,
		httpClient:   httpClient,
		metrics:      opts.Metrics,
		service:      "backoffice-api",
	}, nil
}

func (e *Extractor) Extract(ctx context.Context, doc domain.UploadedDocument) (string, error) {
	raw := decodeContent(doc.Content)

	// Local fast paths: machine-readable documents skip remote OCR entirely.
	if isPlainText(doc.Type) && utf8.Valid(raw) {
		e.metrics.RecordLocalFastPath(e.service, "plaintext")
		return strings.TrimSpace(string(raw)), nil
	}
	if doc.Type == "application/pdf" {
		if text := pdfTextLayer(raw); utf8.RuneCountInString(text) >= e.minTextLayer {
			e.metrics.RecordLocalFastPath(e.service, "pdf_text_layer")
			return text, nil
		}
	}

	return e.extractRemote(ctx, doc.Name, raw)
}

func (e *Extractor) extractRemote(ctx context.Context, filename string, raw []byte) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := e.buildRequest(callCtx, filename, raw)
	if err != nil {
		return "", err
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			e.metrics.RecordOCRTimeout(e.service)
			return PlaceholderOCRTimeout, nil
		}
		return "", fmt.Errorf("extraction request for %s: %w", filename, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		// The service rejected this document; recover locally so the run
		// can keep going with the remaining files.
		slog.Warn("extraction_rejected",
			"filename", filename,
			"status", resp.Status,
			"body", strings.TrimSpace(string(body)),
		)
		return ReadFailurePlaceholder(filename), nil
	}

	var segments []struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&segments); err != nil {
		return "", fmt.Errorf("decode extraction response for %s: %w", filename, err)
	}

	parts := make([]string, 0, len(segments))
	for _, segment := range segments {
		parts = append(parts, segment.Text)
	}
	return strings.Join(parts, "\n"), nil
}

func (e *Extractor) buildRequest(ctx context.Context, filename string, raw []byte) (*http.Request, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("files", filename)
	if err != nil {
		return nil, fmt.Errorf("build multipart file part: %w", err)
	}
	if _, err := part.Write(raw); err != nil {
		return nil, fmt.Errorf("write multipart content: %w", err)
	}
	if err := writer.WriteField("strategy", e.strategy); err != nil {
		return nil, fmt.Errorf("write strategy field: %w", err)
	}
	if err := writer.WriteField("languages", e.language); err != nil {
		return nil, fmt.Errorf("write languages field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/general/v0/general", &body)
	if err != nil {
		return nil, fmt.Errorf("create extraction request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("unstructured-api-key", e.apiKey)
	return req, nil
}

// decodeContent strips an optional data-URI header and base64-decodes the
// payload. Anything that does not look like a data URI passes through as-is.
func decodeContent(content []byte) []byte {
	if !bytes.HasPrefix(content, []byte("data:")) {
		return content
	}
	idx := bytes.Index(content, []byte(";base64,"))
	if idx < 0 {
		return content
	}
	encoded := content[idx+len(";base64,"):]
	decoded, err := base64.StdEncoding.DecodeString(string(encoded))
	if err != nil {
		return content
	}
	return decoded
}

func isPlainText(mimeType string) bool {
	return mimeType == "text/plain" || strings.HasPrefix(mimeType, "text/plain;")
}
