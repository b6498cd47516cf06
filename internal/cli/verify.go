package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/veristamp/veristamp/internal/cache"
	"github.com/veristamp/veristamp/internal/chain"
	"github.com/veristamp/veristamp/internal/model"
	"github.com/veristamp/veristamp/internal/pipeline"
	"github.com/veristamp/veristamp/internal/worker"
)

var (
	outJSON     string
	endpoint    string
	timeout     time.Duration
	userAgent   string
	maxBytes    int64
	noCache     bool
	cacheDir    string
	insecureTLS bool
	httpProxy   string
	httpsProxy  string
	llmEnabled  bool
	llmProvider string
	llmModel    string
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <certificate>",
	Short: "Verify a single timestamp certificate against the blockchain",
	Long: `Verify checks a timestamp proof certificate end to end:
- Extract the document hash, transaction id, and proof path
- Fetch the anchoring transaction from the configured block explorer
- Rebuild the Merkle root from the document hash and proof path
- Match the root against the transaction's OP_RETURN output
- Require at least one confirmation

The exit code is 0 only when the verification passes.

Example:
  veristamp verify certificate.pdf
  veristamp verify certificate.pdf --json report.json
  veristamp verify certificate.pdf --endpoint https://mempool.space/api
  veristamp verify certificate.pdf --llm --llm-provider openai`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	// Output flags
	verifyCmd.Flags().StringVar(&outJSON, "json", "", "output JSON report path (optional)")

	// Chain and HTTP flags
	verifyCmd.Flags().StringVar(&endpoint, "endpoint", "https://blockstream.info/api", "esplora-style chain API endpoint")
	verifyCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall verification timeout")
	verifyCmd.Flags().StringVar(&userAgent, "ua", "veristamp/0.1 (+https://github.com/veristamp/veristamp)", "HTTP User-Agent")
	verifyCmd.Flags().Int64Var(&maxBytes, "max-bytes", 2_000_000, "max response bytes to read")
	verifyCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the transaction cache (force fresh fetch)")
	verifyCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "transaction cache directory (default: $HOME/.veristamp/cache)")
	verifyCmd.Flags().BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification (use for self-signed certs)")
	verifyCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	verifyCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")

	// LLM flags
	verifyCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM report explanation")
	verifyCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	verifyCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

func runVerify(cmd *cobra.Command, args []string) error {
	certificatePath := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Verifying: %s\n", certificatePath)
		fmt.Fprintf(os.Stderr, "Endpoint: %s\n", endpoint)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", !noCache)
		fmt.Fprintln(os.Stderr)
	}

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	client, err := buildChainClient(cfg)
	if err != nil {
		return err
	}

	p := pipeline.NewPipeline(cfg, client)

	report, err := p.VerifyFile(ctx, certificatePath)
	if err != nil {
		return fmt.Errorf("read certificate: %w", err)
	}

	renderer := pipeline.NewRenderer(os.Stdout)
	renderer.RenderText(report)

	if outJSON != "" {
		if err := renderer.RenderJSON(report, outJSON); err != nil {
			return fmt.Errorf("write JSON report: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
	}

	if !report.Passed() {
		return fmt.Errorf("verification failed: %s", certificatePath)
	}
	return nil
}

// buildConfig assembles configuration from defaults and flags.
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	cfg.Chain.Endpoint = endpoint
	cfg.HTTP.Timeout = timeout
	cfg.HTTP.UserAgent = userAgent
	cfg.HTTP.MaxBodyBytes = maxBytes
	cfg.HTTP.InsecureTLS = insecureTLS
	cfg.HTTP.HTTPProxy = httpProxy
	cfg.HTTP.HTTPSProxy = httpsProxy
	cfg.Cache.Enabled = !noCache
	cfg.Output.Verbose = verbose

	if cacheDir != "" {
		cfg.Cache.Dir = cacheDir
	} else if cfg.Cache.Dir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			cfg.Cache.Dir = home + "/.veristamp/cache"
		} else {
			cfg.Cache.Enabled = false
		}
	}

	if llmEnabled {
		cfg.LLM.Provider = llmProvider
		cfg.LLM.Model = llmModel

		// Get API key from environment
		switch llmProvider {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
			if cfg.LLM.APIKey == "" {
				return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
			}
		case "anthropic", "claude":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
			if cfg.LLM.APIKey == "" {
				return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
			}
		case "ollama":
			// Ollama doesn't need an API key
			baseURL := os.Getenv("OLLAMA_BASE_URL")
			if baseURL != "" {
				cfg.LLM.BaseURL = baseURL
			}
		}
	}

	return cfg, nil
}

// buildChainClient wires the esplora client with rate limiting and, when
// enabled, the layered transaction cache.
func buildChainClient(cfg *model.Config) (chain.Client, error) {
	limiter := worker.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	var client chain.Client = chain.NewEsploraClient(cfg.Chain.Endpoint, cfg.HTTP, limiter)

	if cfg.Cache.Enabled && cfg.Cache.Dir != "" {
		store := cache.NewLayeredCache(cfg.Cache.TTL, cfg.Cache.Dir, cfg.Cache.TTL)
		client = chain.NewCachedClient(client, store, cfg.Cache.TTL)
	}

	return client, nil
}
