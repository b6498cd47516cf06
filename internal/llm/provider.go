package llm

import (
	"context"
	"fmt"

	"github.com/veristamp/veristamp/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Explain generates a plain-language explanation of a verification report
	Explain(ctx context.Context, req ExplainRequest) (*ExplainResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// ExplainRequest contains the input for LLM explanation
type ExplainRequest struct {
	// Report is the finalized verification report to explain. The verdict is
	// already decided; the LLM only restates it.
	Report model.VerificationReport

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// ExplainResponse contains the LLM's explanation output
type ExplainResponse struct {
	// Text is the generated explanation
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Model:     "",
		Timeout:   30,
		MaxTokens: 1000,
	}
}

// BuildPrompt constructs the default explanation prompt. The report's verdict
// was computed cryptographically; the prompt forbids the model from second-
// guessing it.
func BuildPrompt(report model.VerificationReport) string {
	prompt := fmt.Sprintf(`You are explaining a blockchain timestamp verification report. The verdict was computed cryptographically and is FINAL - your job is to restate it in plain language, never to question it.

CRITICAL RULES:
1. The verdict is %s. Do not soften, hedge, or contradict it.
2. Do not speculate about steps not listed below.
3. Describe what each check did and whether it passed.
4. Keep it to 3-4 sentences a non-technical reader can follow.

Report:
- Subject: %s
- Verdict: %s
`, report.Overall, report.Subject, report.Overall)

	if report.Confirmations > 0 {
		prompt += fmt.Sprintf("- Confirmations: %d\n", report.Confirmations)
	}
	if report.Timestamp != nil {
		prompt += fmt.Sprintf("- Block time: %s\n", report.Timestamp.Format("2006-01-02 15:04:05 UTC"))
	}

	prompt += "\nChecks:\n"
	for _, step := range report.Steps {
		status := "passed"
		if !step.Passed {
			status = "FAILED"
		}
		prompt += fmt.Sprintf("- %s: %s (%s)\n", step.Name, status, step.Detail)
	}

	prompt += "\nExplain what this verification means for the document's timestamp."

	return prompt
}

// systemPrompt is shared across providers.
const systemPrompt = "You are a helpful assistant that explains blockchain timestamp verification reports without ever contradicting the computed verdict."
