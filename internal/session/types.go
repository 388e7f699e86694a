package session

import (
	"errors"

	"github.com/danielpatrickdp/primacy-governor/internal/attractor"
	"github.com/danielpatrickdp/primacy-governor/internal/drift"
	"github.com/danielpatrickdp/primacy-governor/internal/escalate"
	"github.com/danielpatrickdp/primacy-governor/internal/fidelity"
)

// #region errors

// ErrSessionClosed indicates a turn submitted after session_end.
var ErrSessionClosed = errors.New("session closed")

// ErrSessionNotFound indicates an unknown session id.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionExists indicates a duplicate session id at start.
var ErrSessionExists = errors.New("session already exists")

// #endregion errors

// #region pa-config

// PAConfig is the once-per-session attractor configuration supplied by the
// caller. The vector is copied on session start; the governed model side is
// never handed a reference to it.
type PAConfig struct {
	Name       string
	Purpose    string
	Domain     string
	Vector     []float32
	Thresholds attractor.Thresholds
}

// #endregion pa-config

// #region turn-input

// TurnInput is one user turn to govern. TurnIndex is optional; when set it
// must match the session's next sequence number.
type TurnInput struct {
	SessionID string
	TurnIndex int
	Embedding []float32
	// UserText is optional raw input carried into the audit payload subject
	// to the collector's privacy mode.
	UserText string
}

// #endregion turn-input

// #region action

// Action is the governed outcome of one turn.
type Action string

const (
	// ActionAllow serves the turn unmodified.
	ActionAllow Action = "allow"
	// ActionIntervene serves a proportionally steered response.
	ActionIntervene Action = "intervene"
	// ActionHardBlock refuses the turn on the Layer-1 floor.
	ActionHardBlock Action = "hard_block"
	// ActionDeferPolicy hands the turn to the policy-retrieval collaborator.
	ActionDeferPolicy Action = "defer_to_retrieval"
	// ActionDeferExpert hands the turn to a human expert.
	ActionDeferExpert Action = "defer_to_expert"
	// ActionSessionBlocked refuses the turn that drove drift into BLOCK.
	ActionSessionBlocked Action = "session_blocked"
	// ActionAwaitingAck refuses turns while a BLOCK awaits operator
	// acknowledgment. Expected steady state, not an error.
	ActionAwaitingAck Action = "awaiting_acknowledgment"
)

// #endregion action

// #region verdict

// Verdict is the per-turn output handed back to the caller.
type Verdict struct {
	SessionID          string
	Turn               int
	Action             Action
	Tier               escalate.Tier
	RawSimilarity      float64
	NormalizedFidelity float64
	Strength           float64
	FidelityZone       fidelity.Zone
	DriftZone          drift.Zone
	Drift              float64
	Rationale          string
}

// Served reports whether the governed model's response is delivered to the
// user for this turn (possibly steered).
func (v Verdict) Served() bool {
	switch v.Action {
	case ActionAllow, ActionIntervene, ActionDeferPolicy:
		return true
	default:
		return false
	}
}

// #endregion verdict
