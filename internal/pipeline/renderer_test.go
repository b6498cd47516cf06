package pipeline

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/veristamp/veristamp/internal/model"
)

func TestRenderText_Pass(t *testing.T) {
	report := model.NewReport("cert.pdf")
	report.AddStep(model.StepExtract, true, "claim extracted")
	report.AddStep(model.StepCompare, true, "roots match")
	report.Finalize()
	report.Confirmations = 42
	blockTime := time.Unix(1628278522, 0).UTC()
	report.Timestamp = &blockTime

	var buf bytes.Buffer
	NewRenderer(&buf).RenderText(report)
	out := buf.String()

	if !strings.Contains(out, "✓ extract") {
		t.Errorf("Expected a check mark per passing step, got %q", out)
	}
	if !strings.Contains(out, "PASS (42 confirmations") {
		t.Errorf("Expected verdict line with confirmations, got %q", out)
	}
	if !strings.Contains(out, "2021-08-06") {
		t.Errorf("Expected anchored date in verdict, got %q", out)
	}
}

func TestRenderText_Fail(t *testing.T) {
	report := model.NewReport("cert.pdf")
	report.AddStep(model.StepExtract, true, "claim extracted")
	report.AddStep(model.StepCompare, false, "root mismatch")
	report.Finalize()

	var buf bytes.Buffer
	NewRenderer(&buf).RenderText(report)
	out := buf.String()

	if !strings.Contains(out, "✗ compare") {
		t.Errorf("Expected a cross per failing step, got %q", out)
	}
	if !strings.Contains(out, "FAIL\n") {
		t.Errorf("Expected FAIL verdict line, got %q", out)
	}
}

func TestRenderJSON(t *testing.T) {
	report := model.NewReport("cert.pdf")
	report.AddStep(model.StepExtract, true, "claim extracted")
	report.Finalize()

	path := filepath.Join(t.TempDir(), "report.json")
	if err := NewRenderer(nil).RenderJSON(report, path); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var decoded model.VerificationReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Expected valid JSON, got %v", err)
	}
	if decoded.Subject != "cert.pdf" || decoded.Overall != model.VerdictPass {
		t.Errorf("Round-tripped report differs: %+v", decoded)
	}
}
