// Package fidelity scores a single turn embedding against the Primacy
// Attractor: raw cosine similarity, normalized basin membership, proportional
// intervention strength, and zone classification.
package fidelity

import (
	"github.com/danielpatrickdp/primacy-governor/internal/attractor"
	"github.com/danielpatrickdp/primacy-governor/internal/vecmath"
)

// #region engine

// Engine is a pure scorer configured by one attractor's thresholds.
type Engine struct {
	th attractor.Thresholds
}

// NewEngine creates an engine for the given calibration.
func NewEngine(th attractor.Thresholds) *Engine {
	return &Engine{th: th}
}

// #endregion engine

// #region assess

// Assess scores q against the attractor vector p using the calibrated
// intervention threshold.
func (e *Engine) Assess(q, p []float32) (Assessment, error) {
	return e.AssessTightened(q, p, 0)
}

// AssessTightened scores q against p with the intervention threshold raised
// by margin (session-level RESTRICT tightening). margin 0 is the normal path.
func (e *Engine) AssessTightened(q, p []float32, margin float64) (Assessment, error) {
	if err := vecmath.Validate(q); err != nil {
		return Assessment{}, err
	}
	if err := vecmath.Validate(p); err != nil {
		return Assessment{}, err
	}
	cos, err := vecmath.Cosine(q, p)
	if err != nil {
		return Assessment{}, err
	}

	raw := vecmath.Clamp01(cos)
	normalized := e.normalize(raw)
	effective := vecmath.Clamp01(e.th.InterventionThreshold + margin)

	a := Assessment{
		RawSimilarity:      raw,
		NormalizedFidelity: normalized,
		Strength:           e.strength(normalized),
		Zone:               e.classify(normalized),
		Verdict:            VerdictPass,
		EffectiveThreshold: effective,
	}

	// Layer 1: raw similarity floor. Wins over everything downstream.
	if raw < e.th.SimilarityBaseline {
		a.Verdict = VerdictHardBlock
		return a, nil
	}
	// Layer 2: basin membership.
	if normalized < effective {
		a.Verdict = VerdictIntervention
	}
	return a, nil
}

// #endregion assess

// #region normalize

// normalize linearly rescales clamped raw similarity into basin membership:
// the Layer-1 floor maps to 0 and perfect similarity maps to 1.
func (e *Engine) normalize(raw float64) float64 {
	span := 1.0 - e.th.SimilarityBaseline
	if span <= 0 {
		return vecmath.Clamp01(raw)
	}
	return vecmath.Clamp01((raw - e.th.SimilarityBaseline) / span)
}

// #endregion normalize

// #region strength

// strength computes the proportional controller output:
// min(Gain * max(0, Target - f), 1). Zero at or above target, monotonic
// non-decreasing as fidelity falls.
func (e *Engine) strength(fidelity float64) float64 {
	gap := e.th.Target - fidelity
	if gap <= 0 {
		return 0
	}
	s := e.th.Gain * gap
	if s > 1 {
		s = 1
	}
	return s
}

// #endregion strength

// #region classify

// classify maps normalized fidelity to exactly one zone using half-open
// intervals, green highest.
func (e *Engine) classify(fidelity float64) Zone {
	switch {
	case fidelity >= e.th.ZoneGreen:
		return ZoneGreen
	case fidelity >= e.th.ZoneYellow:
		return ZoneYellow
	case fidelity >= e.th.ZoneOrange:
		return ZoneOrange
	default:
		return ZoneRed
	}
}

// #endregion classify
