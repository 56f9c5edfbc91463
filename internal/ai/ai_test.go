package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/streetburger/issuedesk/internal/config"
	"github.com/streetburger/issuedesk/internal/observability"
)

type generatorFunc func(ctx context.Context, prompt string) (string, error)

func (f generatorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

func TestGatewayWithoutCredentialReturnsPlaceholder(t *testing.T) {
	t.Parallel()

	gateway := NewGateway(FromConfig(config.AIConfig{Model: "gemini-1.5-flash"}), nil, nil)
	if gateway.Configured() {
		t.Fatal("gateway without key should not be configured")
	}
	got := gateway.ExpandDescription(context.Background(), "AC not cooling", "HVAC")
	if got.Text != NotConfiguredText || got.Generated {
		t.Errorf("ExpandDescription = %+v", got)
	}
	got = gateway.SuggestSolution(context.Background(), "AC not cooling", "warm air")
	if got.Text != NotConfiguredText || got.Generated {
		t.Errorf("SuggestSolution = %+v", got)
	}
}

func TestGatewayContainsBackendFailure(t *testing.T) {
	t.Parallel()

	metrics := observability.NewMetrics()
	calls := 0
	gateway := NewGateway(generatorFunc(func(context.Context, string) (string, error) {
		calls++
		return "", errors.New("connection reset")
	}), nil, metrics)

	got := gateway.SuggestSolution(context.Background(), "Leak", "roof")
	if got.Text != FailureText || got.Generated {
		t.Errorf("SuggestSolution = %+v", got)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want a single attempt", calls)
	}
	if metrics.Snapshot().AIFailures != 1 {
		t.Error("failure not counted")
	}
}

func TestGatewayPromptsCarryIssueFields(t *testing.T) {
	t.Parallel()

	var prompts []string
	gateway := NewGateway(generatorFunc(func(_ context.Context, prompt string) (string, error) {
		prompts = append(prompts, prompt)
		return "Check the refrigerant.", nil
	}), nil, nil)

	expanded := gateway.ExpandDescription(context.Background(), "AC not cooling", "HVAC (Air Conditioning & Ventilation)")
	suggested := gateway.SuggestSolution(context.Background(), "AC not cooling", "Blows warm air")
	if !expanded.Generated || !suggested.Generated || suggested.Text != "Check the refrigerant." {
		t.Errorf("suggestions = %+v %+v", expanded, suggested)
	}
	if !strings.Contains(prompts[0], `"HVAC (Air Conditioning & Ventilation)"`) || !strings.Contains(prompts[0], "150 words") {
		t.Errorf("expand prompt = %q", prompts[0])
	}
	if !strings.Contains(prompts[1], "Details: Blows warm air") {
		t.Errorf("suggest prompt = %q", prompts[1])
	}
}

func geminiTestServer(t *testing.T, handler http.HandlerFunc) *Gemini {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewGemini(config.AIConfig{
		APIKey:  "test-key",
		Model:   "gemini-1.5-flash",
		BaseURL: server.URL + "/v1beta/",
	})
}

func TestGeminiGenerate(t *testing.T) {
	t.Parallel()

	client := geminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1beta/models/gemini-1.5-flash:generateContent" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Error("api key header missing")
		}
		var body geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if len(body.Contents) != 1 || body.Contents[0].Parts[0].Text != "hello" {
			t.Errorf("body = %+v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Hi "},{"text":"there"}]},"finishReason":"STOP"}]}`))
	})

	text, err := client.Generate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "Hi there" {
		t.Errorf("text = %q", text)
	}
}

func TestGeminiErrors(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		status int
		body   string
		want   string
	}{
		"api error":     {http.StatusForbidden, `{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`, "API key not valid"},
		"bad gateway":   {http.StatusBadGateway, `<html>`, "unexpected status 502"},
		"no candidates": {http.StatusOK, `{"candidates":[]}`, "no candidates"},
		"empty text":    {http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":" "}]}}]}`, "empty completion"},
	}
	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			client := geminiTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := client.Generate(context.Background(), "hello")
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("err = %v, want %q", err, tc.want)
			}
		})
	}
}
