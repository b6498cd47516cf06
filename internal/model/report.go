package model

import "time"

// StepName identifies one check in the verification sequence.
type StepName string

const (
	StepExtract       StepName = "extract"
	StepFetch         StepName = "fetch"
	StepIntegrity     StepName = "integrity"
	StepOpReturn      StepName = "op_return"
	StepCompare       StepName = "compare"
	StepConfirmations StepName = "confirmations"
)

// Verdict is the terminal outcome of a verification run.
type Verdict string

const (
	VerdictPass Verdict = "PASS"
	VerdictFail Verdict = "FAIL"
)

// StepResult records one check: what ran, whether it passed, and a
// human-readable detail that carries the evidence (hashes, counts, causes).
type StepResult struct {
	Name   StepName `json:"name"`
	Passed bool     `json:"passed"`
	Detail string   `json:"detail"`
}

// VerificationReport is the append-only log of a single verification run.
// Steps appear in execution order; a failed step is always the last one.
// Confirmations and Timestamp are copied from the chain transaction only
// on an overall PASS. The report is never mutated after Finalize.
type VerificationReport struct {
	Subject       string       `json:"subject,omitempty"`
	VerifiedAt    time.Time    `json:"verified_at"`
	Steps         []StepResult `json:"steps"`
	Overall       Verdict      `json:"overall"`
	Confirmations int64        `json:"confirmations,omitempty"`
	Timestamp     *time.Time   `json:"timestamp,omitempty"`

	// Explanation is the optional LLM rendering of the report.
	// It never affects the verdict.
	Explanation *Explanation `json:"explanation,omitempty"`
}

// NewReport starts an empty report for the given subject (usually the
// certificate file name).
func NewReport(subject string) *VerificationReport {
	return &VerificationReport{
		Subject:    subject,
		VerifiedAt: time.Now().UTC(),
		Overall:    VerdictFail,
	}
}

// AddStep appends one step result.
func (r *VerificationReport) AddStep(name StepName, passed bool, detail string) {
	r.Steps = append(r.Steps, StepResult{Name: name, Passed: passed, Detail: detail})
}

// Finalize computes the overall verdict: PASS iff at least one step ran and
// every step passed. Returns the report for call chaining.
func (r *VerificationReport) Finalize() *VerificationReport {
	if len(r.Steps) == 0 {
		r.Overall = VerdictFail
		return r
	}
	for _, s := range r.Steps {
		if !s.Passed {
			r.Overall = VerdictFail
			return r
		}
	}
	r.Overall = VerdictPass
	return r
}

// Passed reports whether the finalized verdict is PASS.
func (r *VerificationReport) Passed() bool {
	return r.Overall == VerdictPass
}

// Explanation contains an optional LLM-generated plain-language summary of
// the report. It is clearly separated from the step results and never
// affects the verdict.
type Explanation struct {
	Enabled  bool     `json:"enabled"`
	Provider string   `json:"provider,omitempty"`
	Model    string   `json:"model,omitempty"`
	Text     string   `json:"text,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}
