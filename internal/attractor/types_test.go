package attractor

import (
	"errors"
	"testing"
)

// #region threshold-tests
func TestDefaultThresholdsValid(t *testing.T) {
	if err := DefaultThresholds().Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	th := DefaultThresholds()
	th.InterventionThreshold = 1.2
	if err := th.Validate(); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestValidateRejectsNonPositiveGain(t *testing.T) {
	th := DefaultThresholds()
	th.Gain = 0
	if err := th.Validate(); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestValidateRejectsZoneDisorder(t *testing.T) {
	th := DefaultThresholds()
	th.ZoneYellow = 0.75 // above green
	if err := th.Validate(); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestValidateRejectsDriftDisorder(t *testing.T) {
	th := DefaultThresholds()
	th.DriftRestrict = 0.25 // above block
	if err := th.Validate(); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestValidateRejectsTierCutoffInversion(t *testing.T) {
	th := DefaultThresholds()
	th.Tier3Cutoff = 0.70
	if err := th.Validate(); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestValidateRejectsZeroWindow(t *testing.T) {
	th := DefaultThresholds()
	th.BaselineWindow = 0
	if err := th.Validate(); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

// #endregion threshold-tests

// #region attractor-tests
func TestNewCopiesVector(t *testing.T) {
	src := []float32{0.1, 0.2, 0.3}
	a, err := New("test", "keep the thread", "testing", src, DefaultThresholds())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	src[0] = 99
	if got := a.Vector(); got[0] != 0.1 {
		t.Fatalf("attractor shares caller's slice: %v", got)
	}

	out := a.Vector()
	out[1] = 99
	if got := a.Vector(); got[1] != 0.2 {
		t.Fatalf("Vector() leaks internal slice: %v", got)
	}
}

func TestNewRejectsEmptyVector(t *testing.T) {
	_, err := New("test", "p", "d", nil, DefaultThresholds())
	if err == nil {
		t.Fatal("expected error for empty vector")
	}
}

func TestNewRejectsBadThresholds(t *testing.T) {
	th := DefaultThresholds()
	th.SimilarityBaseline = -1
	_, err := New("test", "p", "d", []float32{1, 0}, th)
	if !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestDim(t *testing.T) {
	a, err := New("test", "p", "d", make([]float32, 384), DefaultThresholds())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Dim() != 384 {
		t.Fatalf("expected 384, got %d", a.Dim())
	}
}

// #endregion attractor-tests
