package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/veristamp/veristamp/internal/model"
)

// Renderer writes verification reports for humans and machines.
type Renderer struct {
	out io.Writer
}

// NewRenderer builds a renderer writing human output to out.
func NewRenderer(out io.Writer) *Renderer {
	if out == nil {
		out = os.Stdout
	}
	return &Renderer{out: out}
}

// RenderText prints one line per step plus a one-line verdict.
func (r *Renderer) RenderText(report *model.VerificationReport) {
	if report.Subject != "" {
		fmt.Fprintf(r.out, "%s\n", report.Subject)
	}

	for _, step := range report.Steps {
		mark := "✓"
		if !step.Passed {
			mark = "✗"
		}
		fmt.Fprintf(r.out, "  %s %-13s %s\n", mark, step.Name, step.Detail)
	}

	if report.Passed() {
		verdict := fmt.Sprintf("PASS (%d confirmations", report.Confirmations)
		if report.Timestamp != nil {
			verdict += fmt.Sprintf(", anchored %s", report.Timestamp.Format("2006-01-02 15:04:05 UTC"))
		}
		verdict += ")"
		fmt.Fprintf(r.out, "%s\n", verdict)
	} else {
		fmt.Fprintf(r.out, "FAIL\n")
	}

	if report.Explanation != nil && report.Explanation.Text != "" {
		fmt.Fprintf(r.out, "\n--- LLM explanation (%s/%s, informational only) ---\n%s\n",
			report.Explanation.Provider, report.Explanation.Model, report.Explanation.Text)
	}
}

// RenderJSON writes the full report as indented JSON to the given path.
func (r *Renderer) RenderJSON(report *model.VerificationReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
