// Package pipeline sequences the verification checks and assembles the
// report. Each check appends a step result before the next one runs, so a
// report is complete and ordered no matter where verification stops.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/veristamp/veristamp/internal/chain"
	"github.com/veristamp/veristamp/internal/digest"
	"github.com/veristamp/veristamp/internal/llm"
	"github.com/veristamp/veristamp/internal/merkle"
	"github.com/veristamp/veristamp/internal/model"
	"github.com/veristamp/veristamp/internal/proof"
	"github.com/veristamp/veristamp/internal/txout"
)

// Pipeline verifies proof certificates against the blockchain. One Verify
// call is synchronous and shares nothing mutable with concurrent calls; the
// chain fetch is the only blocking operation and honors ctx cancellation.
type Pipeline struct {
	extractor *proof.Extractor
	client    chain.Client
	explainer *llm.Explainer
	config    *model.Config
}

// NewPipeline builds a pipeline around the given chain client.
func NewPipeline(cfg *model.Config, client chain.Client) *Pipeline {
	var explainer *llm.Explainer
	if cfg.LLM.Provider != "" {
		e, err := llm.NewExplainer(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to initialize LLM provider: %v\n", err)
		} else {
			explainer = e
		}
	}

	return &Pipeline{
		extractor: proof.NewExtractor(),
		client:    client,
		explainer: explainer,
		config:    cfg,
	}
}

// VerifyFile verifies the certificate at path. Reading errors are terminal
// and returned as errors; everything past that point lands in the report.
func (p *Pipeline) VerifyFile(ctx context.Context, path string) (*model.VerificationReport, error) {
	document, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return p.Verify(ctx, filepath.Base(path), document), nil
}

// Verify runs all checks over the certificate bytes and returns the
// finalized report. It never fails outright: every outcome, including a
// completely unreadable certificate, is a report.
func (p *Pipeline) Verify(ctx context.Context, subject string, document []byte) *model.VerificationReport {
	report := model.NewReport(subject)

	// 1. Extract the claim from the certificate.
	claim, err := p.extractor.Extract(document)
	if err != nil {
		report.AddStep(model.StepExtract, false, fmt.Sprintf("certificate parsing failed: %v", err))
		return p.finish(ctx, report)
	}
	report.AddStep(model.StepExtract, true, fmt.Sprintf(
		"document hash %s anchored by transaction %s (%d path steps)",
		claim.DocumentHash, claim.TransactionID.DisplayString(), len(claim.MerklePath)))

	// 2. Fetch the anchoring transaction.
	tx, err := p.client.FetchTransaction(ctx, claim.TransactionID)
	if err != nil {
		report.AddStep(model.StepFetch, false, fetchFailureDetail(err))
		return p.finish(ctx, report)
	}
	fetchDetail := fmt.Sprintf("transaction found, %d confirmations", tx.Confirmations)
	if tx.Confirmations == 0 {
		fetchDetail = "transaction found in mempool, 0 confirmations"
	}
	report.AddStep(model.StepFetch, true, fetchDetail)

	// 3. Check the Merkle path is structurally sound.
	if err := merkle.ValidateIntegrity(claim); err != nil {
		report.AddStep(model.StepIntegrity, false, err.Error())
		return p.finish(ctx, report)
	}
	root, err := merkle.ReconstructRoot(claim.DocumentHash, claim.MerklePath)
	if err != nil {
		// Unreachable after ValidateIntegrity; keep the report honest anyway.
		report.AddStep(model.StepIntegrity, false, err.Error())
		return p.finish(ctx, report)
	}
	report.AddStep(model.StepIntegrity, true, fmt.Sprintf(
		"path of %d steps rebuilds root %s", len(claim.MerklePath), root))

	// 4. Extract the committed root from the transaction.
	payload, err := txout.ExtractRoot(tx)
	if err != nil {
		report.AddStep(model.StepOpReturn, false, fmt.Sprintf("OP_RETURN extraction failed: %v", err))
		return p.finish(ctx, report)
	}
	report.AddStep(model.StepOpReturn, true, fmt.Sprintf(
		"OP_RETURN payload %s (%d bytes)", digest.EncodeHex(payload.RootHash), len(payload.RootHash)))

	// 5. Compare recomputed and committed roots byte for byte.
	if !bytes.Equal(payload.RootHash, root.Bytes()) {
		report.AddStep(model.StepCompare, false, fmt.Sprintf(
			"root mismatch: recomputed %s, on-chain %s", root, digest.EncodeHex(payload.RootHash)))
		return p.finish(ctx, report)
	}
	report.AddStep(model.StepCompare, true, "recomputed root matches the OP_RETURN payload")

	// 6. Require at least one confirmation for finality.
	if tx.Confirmations == 0 {
		report.AddStep(model.StepConfirmations, false,
			"transaction is unconfirmed: 0 confirmations give no finality guarantee")
		return p.finish(ctx, report)
	}
	report.AddStep(model.StepConfirmations, true, fmt.Sprintf("%d confirmations", tx.Confirmations))

	report.Confirmations = tx.Confirmations
	report.Timestamp = tx.BlockTime
	return p.finish(ctx, report)
}

// finish finalizes the verdict and, when configured, attaches the LLM
// explanation. The explanation runs strictly after finalization and cannot
// change the verdict.
func (p *Pipeline) finish(ctx context.Context, report *model.VerificationReport) *model.VerificationReport {
	report.Finalize()

	if p.explainer != nil && p.explainer.IsEnabled() {
		explanation, err := p.explainer.GenerateExplanation(ctx, report)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: LLM explanation failed: %v\n", err)
		} else if explanation != nil {
			report.Explanation = explanation
		}
	}

	return report
}

// fetchFailureDetail maps chain errors onto distinguishable step details.
func fetchFailureDetail(err error) string {
	switch {
	case errors.Is(err, chain.ErrNotFound):
		return "transaction not found on the blockchain"
	case errors.Is(err, chain.ErrRateLimited):
		return "chain API rate limited the request"
	case errors.Is(err, chain.ErrUnreachable):
		return fmt.Sprintf("chain API unreachable: %v", err)
	default:
		return fmt.Sprintf("chain query failed: %v", err)
	}
}
