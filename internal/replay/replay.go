// Package replay rebuilds session-level governance state purely from an
// event chain. It exists to prove the chain is the sole source of truth:
// the rebuilt state must match what the live pipeline reported.
package replay

import (
	"encoding/json"
	"fmt"

	"github.com/danielpatrickdp/primacy-governor/internal/attractor"
	"github.com/danielpatrickdp/primacy-governor/internal/drift"
	"github.com/danielpatrickdp/primacy-governor/internal/trace"
)

// #region types

// SessionState is the session view reconstructed from a chain.
type SessionState struct {
	SessionID string
	PAName    string
	Turns     int
	Baseline  *drift.Baseline
	DriftZone drift.Zone
	Blocked   bool
	Closed    bool
	TailHash  string

	// Aggregates over the chain.
	Fidelities    []float64
	Interventions int
	Reviews       int
}

// #endregion types

// #region rebuild

// Rebuild verifies the chain and replays it through a fresh drift tracker.
// Thresholds come from the pa_established payload; a chain without one
// cannot be replayed.
func Rebuild(chain []trace.GovernanceEvent) (SessionState, error) {
	if err := trace.Verify(chain); err != nil {
		return SessionState{}, err
	}
	if len(chain) == 0 {
		return SessionState{}, fmt.Errorf("empty chain")
	}

	st := SessionState{SessionID: chain[0].SessionID, TailHash: chain[len(chain)-1].Hash}
	var tracker *drift.Tracker

	for _, e := range chain {
		switch e.Type {
		case trace.EventPAEstablished:
			th, err := thresholdsFromPayload(e.Payload)
			if err != nil {
				return SessionState{}, fmt.Errorf("event %d: %w", e.Sequence, err)
			}
			tracker = drift.NewTracker(th)
			if name, ok := e.Payload["pa_name"].(string); ok {
				st.PAName = name
			}

		case trace.EventFidelityCalculated:
			if tracker == nil {
				return SessionState{}, fmt.Errorf("event %d: fidelity before pa_established", e.Sequence)
			}
			f, ok := numField(e.Payload, "normalized_fidelity")
			if !ok {
				// Minimal-privacy chains carry no fidelity payload; session
				// state cannot be rebuilt from them.
				return SessionState{}, fmt.Errorf("event %d: fidelity payload absent", e.Sequence)
			}
			st.Fidelities = append(st.Fidelities, f)
			tracker.Observe(f)

		case trace.EventTurnComplete:
			st.Turns++

		case trace.EventInterventionTriggered:
			st.Interventions++

		case trace.EventMandatoryReview:
			st.Reviews++

		case trace.EventHumanAcknowledgment:
			if tracker == nil {
				return SessionState{}, fmt.Errorf("event %d: acknowledgment before pa_established", e.Sequence)
			}
			if err := tracker.Acknowledge(); err != nil {
				return SessionState{}, fmt.Errorf("event %d: %w", e.Sequence, err)
			}

		case trace.EventSessionEnd:
			st.Closed = true
		}
	}

	if tracker != nil {
		st.Baseline = tracker.Baseline()
		st.DriftZone = tracker.Zone()
		st.Blocked = tracker.Blocked()
	} else {
		st.DriftZone = drift.ZoneNormal
	}
	return st, nil
}

// #endregion rebuild

// #region payload-helpers

// thresholdsFromPayload decodes the thresholds record out of a
// pa_established payload.
func thresholdsFromPayload(payload map[string]interface{}) (attractor.Thresholds, error) {
	raw, ok := payload["thresholds"]
	if !ok {
		return attractor.Thresholds{}, fmt.Errorf("pa_established payload missing thresholds")
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return attractor.Thresholds{}, fmt.Errorf("thresholds remarshal: %w", err)
	}
	var th attractor.Thresholds
	if err := json.Unmarshal(b, &th); err != nil {
		return attractor.Thresholds{}, fmt.Errorf("thresholds decode: %w", err)
	}
	if err := th.Validate(); err != nil {
		return attractor.Thresholds{}, err
	}
	return th, nil
}

// numField reads a float payload field, tolerating the json.Number and
// float64 forms a payload takes across store round-trips.
func numField(payload map[string]interface{}, key string) (float64, bool) {
	v, ok := payload[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// #endregion payload-helpers
