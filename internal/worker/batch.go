package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/veristamp/veristamp/internal/model"
)

// Verifier runs one certificate through the verification pipeline.
type Verifier interface {
	VerifyFile(ctx context.Context, path string) (*model.VerificationReport, error)
}

// VerifyJob verifies a single certificate file.
type VerifyJob struct {
	Path     string
	Verifier Verifier
}

// Execute runs the verification.
func (j *VerifyJob) Execute(ctx context.Context) Result {
	report, err := j.Verifier.VerifyFile(ctx, j.Path)
	return &VerifyResult{
		Path:   j.Path,
		Report: report,
		Error:  err,
	}
}

// VerifyResult pairs a certificate path with its report. Error is set only
// for terminal failures (unreadable file, cancelled context); a failed
// verification is a FAIL report, not an error.
type VerifyResult struct {
	Path   string
	Report *model.VerificationReport
	Error  error
}

// GetError returns the terminal error, if any.
func (r *VerifyResult) GetError() error {
	return r.Error
}

// BatchProcessor verifies many certificates concurrently. Runs share no
// mutable state beyond the rate-limited chain client, so workers need no
// coordination.
type BatchProcessor struct {
	verifier    Verifier
	concurrency int
}

// NewBatchProcessor creates a batch processor.
func NewBatchProcessor(verifier Verifier, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		verifier:    verifier,
		concurrency: concurrency,
	}
}

// ProcessPaths verifies the given certificate files on the pool.
func (b *BatchProcessor) ProcessPaths(ctx context.Context, paths []string) []*VerifyResult {
	if len(paths) == 0 {
		return []*VerifyResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	for _, path := range paths {
		pool.Submit(&VerifyJob{Path: path, Verifier: b.verifier})
	}

	results := pool.Wait()

	verifyResults := make([]*VerifyResult, len(results))
	for i, result := range results {
		verifyResults[i] = result.(*VerifyResult)
	}
	return verifyResults
}

// ProcessFile reads certificate paths from a list file and verifies them.
func (b *BatchProcessor) ProcessFile(ctx context.Context, listPath string) ([]*VerifyResult, error) {
	paths, err := ReadPathsFromFile(listPath)
	if err != nil {
		return nil, fmt.Errorf("read certificate list: %w", err)
	}
	return b.ProcessPaths(ctx, paths), nil
}

// ReadPathsFromFile reads one certificate path per line, skipping blanks
// and # comments, deduplicating along the way.
func ReadPathsFromFile(listPath string) ([]string, error) {
	file, err := os.Open(listPath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}
