package fidelity

// #region zone

// Zone is the instantaneous fidelity band for a single turn.
type Zone string

const (
	ZoneGreen  Zone = "green"
	ZoneYellow Zone = "yellow"
	ZoneOrange Zone = "orange"
	ZoneRed    Zone = "red"
)

// #endregion zone

// #region verdict

// Verdict is the per-turn outcome of the two-layer fidelity check.
type Verdict string

const (
	// VerdictPass clears both layers.
	VerdictPass Verdict = "pass"
	// VerdictIntervention fails the Layer-2 basin membership check.
	VerdictIntervention Verdict = "intervention"
	// VerdictHardBlock fails the Layer-1 raw similarity floor; Layer-2 is
	// irrelevant once this fires.
	VerdictHardBlock Verdict = "hard_block"
)

// #endregion verdict

// #region assessment

// Assessment is the pure output of assessing one turn embedding against the
// attractor. All observable effects happen through the caller recording it.
type Assessment struct {
	RawSimilarity      float64 // cosine clamped to [0,1]
	NormalizedFidelity float64 // basin membership in [0,1]
	Strength           float64 // proportional intervention strength in [0,1]
	Zone               Zone
	Verdict            Verdict
	// EffectiveThreshold is the intervention threshold actually applied,
	// after any session-level tightening.
	EffectiveThreshold float64
}

// #endregion assessment
