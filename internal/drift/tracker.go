// Package drift tracks a session's fidelity baseline and escalates through
// the NORMAL → WARNING → RESTRICT → BLOCK zones as fidelity decays relative
// to that baseline. One Tracker per session; turns must be observed in
// arrival order.
package drift

import (
	"errors"
	"math"

	"github.com/danielpatrickdp/primacy-governor/internal/attractor"
)

// #region errors

// ErrNotBlocked indicates an acknowledgment for a session that is not in BLOCK.
var ErrNotBlocked = errors.New("session not blocked")

// #endregion errors

// #region tracker

// Tracker is the per-session baseline and zone state machine. Not safe for
// concurrent use; the owning session serializes access.
type Tracker struct {
	th attractor.Thresholds

	// Welford accumulator for the baseline window.
	count int
	mean  float64
	m2    float64

	baseline *Baseline
	zone     Zone
	blocked  bool
}

// NewTracker creates a tracker in NORMAL with an open baseline window.
func NewTracker(th attractor.Thresholds) *Tracker {
	return &Tracker{th: th, zone: ZoneNormal}
}

// #endregion tracker

// #region observe

// Observe folds one turn's normalized fidelity into session state. During
// the baseline window it accumulates only; afterwards it computes drift and
// applies the transition rules (highest threshold wins, no automatic
// regression).
func (t *Tracker) Observe(fidelity float64) Observation {
	if t.baseline == nil {
		t.count++
		delta := fidelity - t.mean
		t.mean += delta / float64(t.count)
		t.m2 += delta * (fidelity - t.mean)

		obs := Observation{Zone: t.zone, InWindow: true}
		if t.count >= t.th.BaselineWindow {
			t.freeze()
			obs.BaselineCaptured = true
			obs.InWindow = false
		}
		return obs
	}

	d := t.driftOf(fidelity)
	candidate := t.classify(d)

	obs := Observation{Drift: d, Zone: t.zone}
	if candidate.Rank() > t.zone.Rank() {
		t.zone = candidate
		obs.Zone = candidate
		obs.Escalated = true
		obs.MandatoryReview = candidate == ZoneWarning || candidate == ZoneRestrict
		if candidate == ZoneBlock {
			t.blocked = true
		}
	}
	return obs
}

// freeze captures the running mean/stddev as the session baseline.
func (t *Tracker) freeze() {
	variance := 0.0
	if t.count > 1 {
		variance = t.m2 / float64(t.count)
	}
	t.baseline = &Baseline{
		Mean:   t.mean,
		StdDev: math.Sqrt(variance),
		Turns:  t.count,
	}
}

// driftOf computes max(0, (mean - fidelity) / mean).
func (t *Tracker) driftOf(fidelity float64) float64 {
	if t.baseline.Mean <= 0 {
		return 0
	}
	d := (t.baseline.Mean - fidelity) / t.baseline.Mean
	if d < 0 {
		return 0
	}
	return d
}

// classify maps a drift fraction to the zone it demands.
func (t *Tracker) classify(d float64) Zone {
	switch {
	case d >= t.th.DriftBlock:
		return ZoneBlock
	case d >= t.th.DriftRestrict:
		return ZoneRestrict
	case d >= t.th.DriftWarning:
		return ZoneWarning
	default:
		return ZoneNormal
	}
}

// #endregion observe

// #region acknowledge

// Acknowledge clears a BLOCK after operator review. The zone drops to
// WARNING, not NORMAL: drift history is not forgotten.
func (t *Tracker) Acknowledge() error {
	if !t.blocked {
		return ErrNotBlocked
	}
	t.blocked = false
	t.zone = ZoneWarning
	return nil
}

// #endregion acknowledge

// #region accessors

// Zone returns the current escalation zone.
func (t *Tracker) Zone() Zone {
	return t.zone
}

// Blocked reports whether the session is refusing turns pending
// acknowledgment.
func (t *Tracker) Blocked() bool {
	return t.blocked
}

// Baseline returns the frozen baseline, or nil while the window is open.
func (t *Tracker) Baseline() *Baseline {
	if t.baseline == nil {
		return nil
	}
	b := *t.baseline
	return &b
}

// Margin returns the intervention-threshold tightening currently in force:
// RestrictMargin while in RESTRICT or above, else 0.
func (t *Tracker) Margin() float64 {
	if t.zone.Rank() >= ZoneRestrict.Rank() {
		return t.th.RestrictMargin
	}
	return 0
}

// #endregion accessors
