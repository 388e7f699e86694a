// Package escalate classifies a turn's fidelity and drift evidence into one
// of three remediation tiers. It only classifies: executing a tier's
// remediation (policy retrieval, expert review) belongs to the caller's
// collaborators.
package escalate

import (
	"fmt"

	"github.com/danielpatrickdp/primacy-governor/internal/attractor"
	"github.com/danielpatrickdp/primacy-governor/internal/drift"
)

// #region tier

// Tier is the remediation path selected for a turn.
type Tier int

const (
	// TierAutonomous resolves purely via the two-layer fidelity check.
	TierAutonomous Tier = 1
	// TierPolicyAssisted defers to the external policy-retrieval collaborator.
	TierPolicyAssisted Tier = 2
	// TierExpert defers to a human expert.
	TierExpert Tier = 3
)

// Action names what the caller should do with a routed turn.
type Action string

const (
	ActionAutonomous  Action = "autonomous"
	ActionDeferPolicy Action = "defer_to_retrieval"
	ActionDeferExpert Action = "defer_to_expert"
)

// #endregion tier

// #region decision

// Decision is the router's classification plus its rationale.
type Decision struct {
	Tier      Tier
	Action    Action
	Rationale string
}

// #endregion decision

// #region router

// Router routes turns by the attractor's tier cutoffs.
type Router struct {
	th attractor.Thresholds
}

// NewRouter creates a router for the given calibration.
func NewRouter(th attractor.Thresholds) *Router {
	return &Router{th: th}
}

// Route classifies one turn. A BLOCK drift zone forces TierExpert regardless
// of the fidelity value.
func (r *Router) Route(fidelity float64, zone drift.Zone) Decision {
	if zone == drift.ZoneBlock {
		return Decision{
			Tier:      TierExpert,
			Action:    ActionDeferExpert,
			Rationale: "session drift zone BLOCK overrides fidelity routing",
		}
	}
	switch {
	case fidelity >= r.th.Tier1Cutoff:
		return Decision{
			Tier:      TierAutonomous,
			Action:    ActionAutonomous,
			Rationale: fmt.Sprintf("fidelity %.4f >= tier-1 cutoff %.4f", fidelity, r.th.Tier1Cutoff),
		}
	case fidelity < r.th.Tier3Cutoff:
		return Decision{
			Tier:      TierExpert,
			Action:    ActionDeferExpert,
			Rationale: fmt.Sprintf("fidelity %.4f < tier-3 cutoff %.4f", fidelity, r.th.Tier3Cutoff),
		}
	default:
		return Decision{
			Tier:      TierPolicyAssisted,
			Action:    ActionDeferPolicy,
			Rationale: fmt.Sprintf("fidelity %.4f in policy band [%.4f, %.4f)", fidelity, r.th.Tier3Cutoff, r.th.Tier1Cutoff),
		}
	}
}

// #endregion router
