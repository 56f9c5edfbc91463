package ai

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/streetburger/issuedesk/internal/observability"
	apperrors "github.com/streetburger/issuedesk/pkg/util/errorutil"
)

// Placeholder texts returned instead of errors.
const (
	NotConfiguredText = "AI service not configured."
	FailureText       = "Error connecting to AI service."
)

// Suggestion is gateway output. Generated is false when Text is a placeholder.
type Suggestion struct {
	Text      string
	Generated bool
}

// Gateway wraps a Generator with the two fixed prompts. It never returns an
// error: a missing backend or a failed call yields a placeholder suggestion.
type Gateway struct {
	generator Generator
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// NewGateway builds a gateway; a nil generator means AI is not configured.
func NewGateway(generator Generator, logger *zap.Logger, metrics *observability.Metrics) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{generator: generator, logger: logger, metrics: metrics}
}

// Configured reports whether a backend is available.
func (g *Gateway) Configured() bool {
	return g != nil && g.generator != nil
}

// ExpandDescription drafts a description for the issue form from its title
// and category.
func (g *Gateway) ExpandDescription(ctx context.Context, title, category string) Suggestion {
	prompt := fmt.Sprintf(`I am a restaurant operations staff member reporting a maintenance issue.

Title: %q
Category: %q

Please generate a professional, detailed description of what might be going wrong and what initial troubleshooting steps could be tried.
Keep it under 150 words.`, title, category)
	return g.run(ctx, "expand_description", prompt)
}

// SuggestSolution proposes troubleshooting steps for an issue.
func (g *Gateway) SuggestSolution(ctx context.Context, title, description string) Suggestion {
	prompt := fmt.Sprintf(`Act as a senior facilities and maintenance engineer.

Analyze the following issue and suggest 3 potential solutions or troubleshooting steps formatted as a bulleted list.

Issue: %s
Details: %s`, title, description)
	return g.run(ctx, "suggest_solution", prompt)
}

func (g *Gateway) run(ctx context.Context, operation, prompt string) Suggestion {
	if !g.Configured() {
		return Suggestion{Text: NotConfiguredText}
	}
	text, err := g.generator.Generate(ctx, prompt)
	if err != nil {
		contained := apperrors.NewAIServiceUnavailable("ai backend call failed", err)
		g.logger.Warn("ai suggestion unavailable",
			zap.String("operation", operation),
			zap.Error(contained))
		g.metrics.RecordAIFailure()
		return Suggestion{Text: FailureText}
	}
	return Suggestion{Text: text, Generated: true}
}
