package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

func textPart(text string) contentPart {
	return contentPart{Type: "text", Text: text}
}

func imagePart(dataURI string) contentPart {
	return contentPart{Type: "image_url", ImageURL: &imageURL{URL: dataURI}}
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
	MaxTokens      int            `json:"max_tokens,omitempty"`
}

// chatJSON runs one chat completion with JSON-object output and returns the
// assistant message content.
func (c *Client) chatJSON(ctx context.Context, operation, model, systemPrompt string, userContent any, maxTokens int) (string, error) {
	request := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userContent},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
		MaxTokens:      maxTokens,
	}

	var content string
	call := func(callCtx context.Context) error {
		reply, err := c.postChat(callCtx, operation, request)
		if err != nil {
			return err
		}
		content = reply
		return nil
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "openai."+operation, call)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", err
	}
	return content, nil
}

func (c *Client) postChat(ctx context.Context, operation string, request chatRequest) (string, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("inference %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", formatHTTPError(operation, resp)
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("decode %s response: %w", operation, err)
	}
	if response.Error != nil {
		return "", fmt.Errorf("inference %s error: %s", operation, response.Error.Message)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("inference %s: response has no choices", operation)
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

func formatHTTPError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return fmt.Errorf("inference %s status: %s", operation, resp.Status)
	}
	return fmt.Errorf("inference %s status: %s: %s", operation, resp.Status, msg)
}
