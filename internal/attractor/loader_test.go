package attractor

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sampleTemplate = `
name: telos-support
purpose: keep responses anchored to the support charter
domain: customer_support
anchor_text: "You are a support assistant for ..."
thresholds:
  intervention_threshold: 0.55
  baseline_window: 8
`

// #region parse-tests
func TestParseTemplateKeepsDefaults(t *testing.T) {
	tpl, err := ParseTemplate([]byte(sampleTemplate))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tpl.Name != "telos-support" {
		t.Fatalf("name = %q", tpl.Name)
	}
	// Keys named in the file override; everything else stays default.
	if tpl.Thresholds.InterventionThreshold != 0.55 {
		t.Fatalf("intervention_threshold = %v", tpl.Thresholds.InterventionThreshold)
	}
	if tpl.Thresholds.BaselineWindow != 8 {
		t.Fatalf("baseline_window = %d", tpl.Thresholds.BaselineWindow)
	}
	def := DefaultThresholds()
	if tpl.Thresholds.SimilarityBaseline != def.SimilarityBaseline {
		t.Fatalf("similarity_baseline lost its default: %v", tpl.Thresholds.SimilarityBaseline)
	}
	if tpl.Thresholds.DriftBlock != def.DriftBlock {
		t.Fatalf("drift_block lost its default: %v", tpl.Thresholds.DriftBlock)
	}
}

func TestParseTemplateMissingName(t *testing.T) {
	_, err := ParseTemplate([]byte(`purpose: p` + "\n" + `anchor_text: a`))
	if !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestParseTemplateMissingPurpose(t *testing.T) {
	_, err := ParseTemplate([]byte(`name: n` + "\n" + `anchor_text: a`))
	if !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestParseTemplateNeedsVectorOrAnchor(t *testing.T) {
	_, err := ParseTemplate([]byte(`name: n` + "\n" + `purpose: p`))
	if !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestParseTemplateBadYAML(t *testing.T) {
	if _, err := ParseTemplate([]byte("name: [unclosed")); err == nil {
		t.Fatal("expected parse error")
	}
}

// #endregion parse-tests

// #region load-tests
func TestLoadTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pa.yaml")
	if err := os.WriteFile(path, []byte(sampleTemplate), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	tpl, err := LoadTemplate(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tpl.Domain != "customer_support" {
		t.Fatalf("domain = %q", tpl.Domain)
	}
}

func TestLoadTemplateMissingFile(t *testing.T) {
	if _, err := LoadTemplate(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

// #endregion load-tests

// #region build-tests
func TestBuildWithOverrideVector(t *testing.T) {
	tpl, err := ParseTemplate([]byte(sampleTemplate))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, err := tpl.Build([]float32{0.2, 0.8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Dim() != 2 {
		t.Fatalf("dim = %d", a.Dim())
	}
	if a.Thresholds.InterventionThreshold != 0.55 {
		t.Fatalf("thresholds not carried: %v", a.Thresholds.InterventionThreshold)
	}
}

func TestBuildInlineVector(t *testing.T) {
	tpl := Template{
		Name:       "inline",
		Purpose:    "p",
		Vector:     []float32{1, 0, 0},
		Thresholds: DefaultThresholds(),
	}
	a, err := tpl.Build(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Dim() != 3 {
		t.Fatalf("dim = %d", a.Dim())
	}
}

// #endregion build-tests
