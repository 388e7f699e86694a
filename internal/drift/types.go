package drift

// #region zone

// Zone is the session-level escalation state.
type Zone string

const (
	ZoneNormal   Zone = "NORMAL"
	ZoneWarning  Zone = "WARNING"
	ZoneRestrict Zone = "RESTRICT"
	ZoneBlock    Zone = "BLOCK"
)

// zoneRank orders zones for the no-automatic-regression rule.
var zoneRank = map[Zone]int{
	ZoneNormal:   0,
	ZoneWarning:  1,
	ZoneRestrict: 2,
	ZoneBlock:    3,
}

// Rank returns the escalation ordering of z (NORMAL lowest).
func (z Zone) Rank() int {
	return zoneRank[z]
}

// #endregion zone

// #region baseline

// Baseline is the frozen fidelity statistics from the opening window.
type Baseline struct {
	Mean   float64
	StdDev float64
	Turns  int
}

// #endregion baseline

// #region observation

// Observation reports the effect of one turn's fidelity on session state.
type Observation struct {
	// Drift is the relative decline from the baseline mean, in [0,1].
	// Zero while the baseline window is still open.
	Drift float64
	Zone  Zone
	// Escalated is true when this turn raised the zone.
	Escalated bool
	// MandatoryReview is true when the escalation demands a review event.
	MandatoryReview bool
	// BaselineCaptured is true on the turn that froze the baseline.
	BaselineCaptured bool
	// InWindow is true while fidelity is still being accumulated.
	InWindow bool
}

// #endregion observation
