package report

import (
	"path/filepath"
	"testing"
	"time"

	"example.com/tigate/internal/rules"
)

func sampleValidation() Validation {
	v := Validation{
		Source:     "capture.bin",
		SourceHash: "deadbeef00112233",
		SourceSize: 4096,
		Frames:     12,
	}
	v.Report.Summary.Total = 1
	v.Report.Summary.Warnings = 1
	v.Report.Summary.Pass = true
	v.Report.Findings = []rules.Diagnostic{{
		Ts:       time.Date(2026, 2, 14, 23, 8, 4, 0, time.UTC),
		Source:   "capture.bin",
		Tag:      "UMOY1",
		RuleId:   "TI-005",
		Severity: rules.WARN,
		Message:  "horodate runs ahead of the wall clock",
	}}
	return v
}

func TestValidationJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "validation.json")
	want := sampleValidation()
	if err := SaveValidationJSON(want, path); err != nil {
		t.Fatalf("SaveValidationJSON: %v", err)
	}
	got, err := LoadValidationJSON(path)
	if err != nil {
		t.Fatalf("LoadValidationJSON: %v", err)
	}
	if got.SourceHash != want.SourceHash || got.Frames != want.Frames {
		t.Errorf("got %+v", got)
	}
	if len(got.Report.Findings) != 1 || got.Report.Findings[0].RuleId != "TI-005" {
		t.Errorf("findings = %+v", got.Report.Findings)
	}
}

func TestSaveValidationPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "validation.pdf")
	if err := SaveValidationPDF(sampleValidation(), path); err != nil {
		t.Fatalf("SaveValidationPDF: %v", err)
	}
}

func TestCaptureHashToQR(t *testing.T) {
	png, err := CaptureHashToQR("  dead beef ", 64)
	if err != nil {
		t.Fatalf("CaptureHashToQR: %v", err)
	}
	if len(png) == 0 {
		t.Fatal("empty PNG")
	}
	if _, err := CaptureHashToQR("zzz", 64); err == nil {
		t.Fatal("accepted hash with no hex digits")
	}
}
