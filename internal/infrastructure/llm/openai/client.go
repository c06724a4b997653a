// Package openai adapts the chat-completions inference endpoint for the
// three analysis agents (legal analyst, confidence scorer, medical adviser)
// and the metadata pre-fill. Every call requests strict JSON output.
package openai

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/kachastepien/Backoffice/internal/core/domain"
	"github.com/kachastepien/Backoffice/internal/infrastructure/resilience"
)

const defaultBaseURL = "https://api.openai.com/v1"

type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Executor   *resilience.Executor
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	executor   *resilience.Executor
}

func NewClient(apiKey string, opts Options) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, domain.WrapError(domain.ErrConfiguration, "init inference client", errors.New("missing inference provider credential"))
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
		executor:   opts.Executor,
	}, nil
}

// extractJSONObject salvages the outermost JSON object from a model reply
// that wrapped it in prose or code fences.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
