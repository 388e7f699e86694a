package trace

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// #region genesis

// GenesisHash anchors every session chain. A later move to one global chain
// keeps verification compatible as long as this constant is unchanged.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// #endregion genesis

// #region tamper-error

// TamperError reports the first chain position where verification failed.
type TamperError struct {
	Index  int
	Reason string
}

func (e *TamperError) Error() string {
	return fmt.Sprintf("chain tampered at index %d: %s", e.Index, e.Reason)
}

// #endregion tamper-error

// #region hashing

// hashableEvent strips the hash fields so the event hash can cover the rest.
func hashableEvent(e GovernanceEvent) map[string]interface{} {
	return map[string]interface{}{
		"seq":        e.Sequence,
		"session_id": e.SessionID,
		"event_type": string(e.Type),
		"timestamp":  e.Timestamp,
		"payload":    e.Payload,
	}
}

// EventHash computes SHA256(previous_hash || canonical_serialize(event)).
func EventHash(prevHash string, e GovernanceEvent) (string, error) {
	canonical, err := CanonicalJSON(hashableEvent(e))
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write([]byte(prevHash))
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashText returns the SHA-256 hex digest of a user text, used by the
// anonymized privacy mode.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// #endregion hashing

// #region verify

// Verify recomputes the hash linkage of one session chain in order. It is
// deterministic, needs no state beyond the genesis constant, and fails with
// a TamperError at the first mismatch. Verifying an unmodified chain twice
// yields identical results.
func Verify(chain []GovernanceEvent) error {
	prev := GenesisHash
	for i, e := range chain {
		if !strings.EqualFold(e.PrevHash, prev) {
			return &TamperError{Index: i, Reason: fmt.Sprintf("previous_hash %s does not link to %s", e.PrevHash, prev)}
		}
		want, err := EventHash(prev, e)
		if err != nil {
			return &TamperError{Index: i, Reason: fmt.Sprintf("canonicalize: %v", err)}
		}
		if !strings.EqualFold(e.Hash, want) {
			return &TamperError{Index: i, Reason: fmt.Sprintf("event_hash %s does not match recomputed %s", e.Hash, want)}
		}
		prev = e.Hash
	}
	return nil
}

// #endregion verify
