// Package attractor defines the Primacy Attractor: the fixed reference
// embedding plus the calibrated threshold record every session is governed
// against. Thresholds are data owned by each attractor, never process-wide
// constants, so multiple domains can run side by side with different
// calibrations.
package attractor

import (
	"errors"
	"fmt"

	"github.com/danielpatrickdp/primacy-governor/internal/vecmath"
)

// #region errors

// ErrConfigInvalid indicates missing or out-of-range threshold configuration.
var ErrConfigInvalid = errors.New("config invalid")

// #endregion errors

// #region thresholds

// Thresholds is the full calibration record for one attractor/domain.
type Thresholds struct {
	// Layer-1: raw cosine below this is an unconditional hard block.
	SimilarityBaseline float64 `yaml:"similarity_baseline" json:"similarity_baseline"`
	// Layer-2: normalized fidelity below this triggers an intervention.
	InterventionThreshold float64 `yaml:"intervention_threshold" json:"intervention_threshold"`

	// Fidelity zone boundaries (half-open, green highest).
	ZoneGreen  float64 `yaml:"zone_green" json:"zone_green"`
	ZoneYellow float64 `yaml:"zone_yellow" json:"zone_yellow"`
	ZoneOrange float64 `yaml:"zone_orange" json:"zone_orange"`

	// Proportional controller: strength = min(Gain * max(0, Target-f), 1).
	Gain   float64 `yaml:"gain" json:"gain"`
	Target float64 `yaml:"target" json:"target"`

	// Baseline capture window in turns.
	BaselineWindow int `yaml:"baseline_window" json:"baseline_window"`

	// Session drift escalation boundaries, as fractions of baseline mean.
	DriftWarning  float64 `yaml:"drift_warning" json:"drift_warning"`
	DriftRestrict float64 `yaml:"drift_restrict" json:"drift_restrict"`
	DriftBlock    float64 `yaml:"drift_block" json:"drift_block"`
	// Margin added to the effective intervention threshold while RESTRICTed.
	RestrictMargin float64 `yaml:"restrict_margin" json:"restrict_margin"`

	// Escalation router cutoffs.
	Tier1Cutoff float64 `yaml:"tier1_cutoff" json:"tier1_cutoff"`
	Tier3Cutoff float64 `yaml:"tier3_cutoff" json:"tier3_cutoff"`
}

// DefaultThresholds returns the standard calibration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SimilarityBaseline:    0.20,
		InterventionThreshold: 0.48,
		ZoneGreen:             0.70,
		ZoneYellow:            0.60,
		ZoneOrange:            0.50,
		Gain:                  1.5,
		Target:                0.65,
		BaselineWindow:        5,
		DriftWarning:          0.10,
		DriftRestrict:         0.15,
		DriftBlock:            0.20,
		RestrictMargin:        0.05,
		Tier1Cutoff:           0.65,
		Tier3Cutoff:           0.35,
	}
}

// Validate checks every threshold is present and in range.
func (t Thresholds) Validate() error {
	in01 := func(name string, v float64) error {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s=%.4f outside [0,1]", ErrConfigInvalid, name, v)
		}
		return nil
	}
	checks := []struct {
		name string
		v    float64
	}{
		{"similarity_baseline", t.SimilarityBaseline},
		{"intervention_threshold", t.InterventionThreshold},
		{"zone_green", t.ZoneGreen},
		{"zone_yellow", t.ZoneYellow},
		{"zone_orange", t.ZoneOrange},
		{"target", t.Target},
		{"drift_warning", t.DriftWarning},
		{"drift_restrict", t.DriftRestrict},
		{"drift_block", t.DriftBlock},
		{"restrict_margin", t.RestrictMargin},
		{"tier1_cutoff", t.Tier1Cutoff},
		{"tier3_cutoff", t.Tier3Cutoff},
	}
	for _, c := range checks {
		if err := in01(c.name, c.v); err != nil {
			return err
		}
	}
	if t.Gain <= 0 {
		return fmt.Errorf("%w: gain must be positive, got %.4f", ErrConfigInvalid, t.Gain)
	}
	if t.BaselineWindow < 1 {
		return fmt.Errorf("%w: baseline_window must be >= 1, got %d", ErrConfigInvalid, t.BaselineWindow)
	}
	if !(t.ZoneOrange < t.ZoneYellow && t.ZoneYellow < t.ZoneGreen) {
		return fmt.Errorf("%w: zone boundaries must satisfy orange < yellow < green", ErrConfigInvalid)
	}
	if !(t.DriftWarning < t.DriftRestrict && t.DriftRestrict < t.DriftBlock) {
		return fmt.Errorf("%w: drift boundaries must satisfy warning < restrict < block", ErrConfigInvalid)
	}
	if t.Tier3Cutoff >= t.Tier1Cutoff {
		return fmt.Errorf("%w: tier3_cutoff must be below tier1_cutoff", ErrConfigInvalid)
	}
	return nil
}

// #endregion thresholds

// #region attractor

// Attractor is immutable once established for a session. The reference
// vector is held privately and only handed out as a copy; nothing downstream
// of the governor can mutate it.
type Attractor struct {
	Name       string
	Purpose    string
	Domain     string
	Thresholds Thresholds

	vec []float32
}

// New validates the vector and thresholds and returns an Attractor owning a
// private copy of the vector.
func New(name, purpose, domain string, vector []float32, th Thresholds) (*Attractor, error) {
	if err := vecmath.Validate(vector); err != nil {
		return nil, fmt.Errorf("attractor vector: %w", err)
	}
	if err := th.Validate(); err != nil {
		return nil, err
	}
	vec := make([]float32, len(vector))
	copy(vec, vector)
	return &Attractor{
		Name:       name,
		Purpose:    purpose,
		Domain:     domain,
		Thresholds: th,
		vec:        vec,
	}, nil
}

// Dim reports the vector dimensionality.
func (a *Attractor) Dim() int {
	return len(a.vec)
}

// Vector returns a fresh copy of the reference vector.
func (a *Attractor) Vector() []float32 {
	out := make([]float32, len(a.vec))
	copy(out, a.vec)
	return out
}

// #endregion attractor
