package llm

import (
	"context"
	"fmt"

	"github.com/veristamp/veristamp/internal/model"
)

// Explainer turns a finalized verification report into a plain-language
// explanation. Every failure mode degrades to warnings: the verification
// verdict is computed before the explainer runs and nothing here changes it.
type Explainer struct {
	provider Provider
	config   Config
}

// NewExplainer creates an explainer from configuration. An empty provider
// name yields a disabled explainer, not an error.
func NewExplainer(config Config) (*Explainer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}

	return &Explainer{
		provider: provider,
		config:   config,
	}, nil
}

// IsEnabled reports whether a provider is configured.
func (e *Explainer) IsEnabled() bool {
	return e.provider != nil
}

// ProviderName returns the configured provider's name, or "" when disabled.
func (e *Explainer) ProviderName() string {
	if e.provider == nil {
		return ""
	}
	return e.provider.Name()
}

// GenerateExplanation produces the explanation for a finalized report.
// Returns nil when disabled. Provider errors and unavailability never
// propagate as errors; they land in the explanation's warnings so the
// report stays usable.
func (e *Explainer) GenerateExplanation(ctx context.Context, report *model.VerificationReport) (*model.Explanation, error) {
	if e.provider == nil {
		return nil, nil
	}

	if !e.provider.IsAvailable(ctx) {
		return &model.Explanation{
			Enabled:  false,
			Provider: e.provider.Name(),
			Warnings: []string{fmt.Sprintf("LLM provider '%s' is not available - check configuration and connectivity", e.provider.Name())},
		}, nil
	}

	resp, err := e.provider.Explain(ctx, ExplainRequest{
		Report:    *report,
		Model:     e.config.Model,
		MaxTokens: e.config.MaxTokens,
	})
	if err != nil {
		return &model.Explanation{
			Enabled:  true,
			Provider: e.provider.Name(),
			Model:    e.config.Model,
			Warnings: []string{fmt.Sprintf("explanation generation failed: %v", err)},
		}, nil
	}

	return &model.Explanation{
		Enabled:  true,
		Provider: e.provider.Name(),
		Model:    resp.Model,
		Text:     resp.Text,
		Warnings: []string{fmt.Sprintf("Tokens used: %d", resp.TokensUsed)},
	}, nil
}
