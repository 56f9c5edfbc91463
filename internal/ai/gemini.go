package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/streetburger/issuedesk/internal/config"
)

// Generator produces text for a single prompt. No streaming, no history.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Gemini calls the generateContent REST endpoint.
type Gemini struct {
	httpClient *http.Client
	baseURL    string
	model      string
	apiKey     string
}

// FromConfig returns the configured backend, or nil when no API key is set.
func FromConfig(cfg config.AIConfig) Generator {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}
	return NewGemini(cfg)
}

// NewGemini builds a client from configuration.
func NewGemini(cfg config.AIConfig) *Gemini {
	return &Gemini{
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate sends one prompt and returns the concatenated text of the first
// candidate.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, url.PathEscape(g.model))
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("x-goog-api-key", g.apiKey)

	response, err := g.httpClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var decoded geminiResponse
	decodeErr := json.Unmarshal(raw, &decoded)
	if response.StatusCode != http.StatusOK {
		if decodeErr == nil && decoded.Error != nil {
			return "", fmt.Errorf("gemini: %d %s: %s", response.StatusCode, decoded.Error.Status, decoded.Error.Message)
		}
		return "", fmt.Errorf("gemini: unexpected status %d", response.StatusCode)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("decode response: %w", decodeErr)
	}
	if len(decoded.Candidates) == 0 {
		return "", errors.New("gemini: response has no candidates")
	}

	var text strings.Builder
	for _, part := range decoded.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", errors.New("gemini: empty completion")
	}
	return text.String(), nil
}
