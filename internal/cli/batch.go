package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/veristamp/veristamp/internal/pipeline"
	"github.com/veristamp/veristamp/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Verify multiple certificates from a list file in parallel",
	Long: `Batch verifies many certificates concurrently:
- Read certificate paths from the input file (one per line, # comments allowed)
- Verify certificates in parallel with a configurable worker count
- Chain API requests share one rate limiter across workers
- Write an individual JSON report per certificate

The exit code is 0 only when every certificate passes.

Example:
  veristamp batch certificates.txt
  veristamp batch certificates.txt --concurrency 8 --output-dir ./reports
  veristamp batch certificates.txt --endpoint https://mempool.space/api`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Concurrency flags
	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./veristamp-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")

	// Shared verification flags
	batchCmd.Flags().StringVar(&endpoint, "endpoint", "https://blockstream.info/api", "esplora-style chain API endpoint")
	batchCmd.Flags().DurationVar(&timeout, "verify-timeout", 2*time.Minute, "timeout for individual verifications")
	batchCmd.Flags().StringVar(&userAgent, "ua", "veristamp/0.1 (+https://github.com/veristamp/veristamp)", "HTTP User-Agent")
	batchCmd.Flags().Int64Var(&maxBytes, "max-bytes", 2_000_000, "max response bytes to read")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the transaction cache (force fresh fetch)")
	batchCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "transaction cache directory (default: $HOME/.veristamp/cache)")
	batchCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	batchCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")

	// LLM flags
	batchCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM report explanation")
	batchCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	batchCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "Input file:  %s\n", file)
	fmt.Fprintf(os.Stderr, "Workers:     %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "Output dir:  %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "Endpoint:    %s\n", endpoint)
	fmt.Fprintln(os.Stderr)

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	cfg.Concurrency.Workers = concurrency

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	client, err := buildChainClient(cfg)
	if err != nil {
		return err
	}

	p := pipeline.NewPipeline(cfg, client)
	processor := worker.NewBatchProcessor(p, concurrency)

	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	renderer := pipeline.NewRenderer(os.Stdout)
	passCount := 0
	failCount := 0

	for _, result := range results {
		if result.Error != nil {
			failCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Path, result.Error)
			continue
		}

		jsonPath := filepath.Join(outputDir, reportFilename(result.Path))
		if err := renderer.RenderJSON(result.Report, jsonPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write report: %v\n", result.Path, err)
		}

		if result.Report.Passed() {
			passCount++
			fmt.Fprintf(os.Stderr, "✓ %s (%d confirmations)\n", result.Path, result.Report.Confirmations)
		} else {
			failCount++
			last := result.Report.Steps[len(result.Report.Steps)-1]
			fmt.Fprintf(os.Stderr, "✗ %s: %s failed: %s\n", result.Path, last.Name, last.Detail)
		}
	}

	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "Total:    %d certificates\n", len(results))
	fmt.Fprintf(os.Stderr, "Passed:   %d\n", passCount)
	fmt.Fprintf(os.Stderr, "Failed:   %d\n", failCount)
	fmt.Fprintf(os.Stderr, "Reports:  %s\n", outputDir)

	if failCount > 0 {
		return fmt.Errorf("%d of %d certificates failed verification", failCount, len(results))
	}
	return nil
}

// reportFilename derives a safe JSON report name from a certificate path.
func reportFilename(certPath string) string {
	name := filepath.Base(certPath)
	if ext := filepath.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}

	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_", " ", "-",
	)
	name = replacer.Replace(name)

	if len(name) > 100 {
		name = name[:100]
	}
	return name + ".json"
}
