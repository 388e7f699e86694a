// Package trace is the governance audit spine: an append-only, SHA-256
// hash-chained event log with one logical chain per session. The chain is
// the sole source of truth for audit; session state is reconstructible by
// replaying it.
package trace

import "time"

// #region event-type

// EventType names a governance state transition.
type EventType string

const (
	EventSessionStart         EventType = "session_start"
	EventPAEstablished        EventType = "pa_established"
	EventTurnStart            EventType = "turn_start"
	EventFidelityCalculated   EventType = "fidelity_calculated"
	EventInterventionTriggered EventType = "intervention_triggered"
	EventTurnComplete         EventType = "turn_complete"
	EventSessionEnd           EventType = "session_end"
	EventMandatoryReview      EventType = "mandatory_review"
	EventHumanAcknowledgment  EventType = "human_acknowledgment"
	// EventCorrection amends an earlier event by reference. The corrected
	// event itself is never touched.
	EventCorrection EventType = "correction"
)

// #endregion event-type

// #region event

// GovernanceEvent is one append-only audit record. Events are created
// exactly once per state transition and never mutated or deleted.
type GovernanceEvent struct {
	Sequence  int                    `json:"seq"`
	SessionID string                 `json:"session_id"`
	Type      EventType              `json:"event_type"`
	Timestamp string                 `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	PrevHash  string                 `json:"previous_hash"`
	Hash      string                 `json:"event_hash"`
}

// Time parses the event timestamp.
func (e GovernanceEvent) Time() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, e.Timestamp)
}

// #endregion event

// #region privacy

// PrivacyMode controls how much payload detail the collector retains.
type PrivacyMode string

const (
	// PrivacyFull keeps complete payloads.
	PrivacyFull PrivacyMode = "full"
	// PrivacyAnonymized replaces user text with its SHA-256 and randomizes
	// session IDs at export time.
	PrivacyAnonymized PrivacyMode = "anonymized"
	// PrivacyMinimal appends events without per-turn payloads; only
	// aggregate counters survive.
	PrivacyMinimal PrivacyMode = "minimal"
	// PrivacyDisabled appends nothing. Audit and compliance guarantees are
	// void in this mode.
	PrivacyDisabled PrivacyMode = "disabled"
)

// userTextKeys are the payload fields PrivacyAnonymized hashes.
var userTextKeys = map[string]bool{
	"user_input":    true,
	"user_text":     true,
	"prompt":        true,
	"response_text": true,
}

// #endregion privacy
