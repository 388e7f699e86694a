package trace

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

// buildChain appends n scored turns onto a fresh in-memory chain.
func buildChain(t *testing.T, sessionID string, n int) ([]GovernanceEvent, *MemorySink) {
	t.Helper()
	sink := &MemorySink{}
	c := NewCollector(PrivacyFull, sink)
	c.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	if _, err := c.Append(sessionID, EventSessionStart, map[string]interface{}{"pa_name": "test"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	for i := 1; i <= n; i++ {
		_, err := c.Append(sessionID, EventFidelityCalculated, map[string]interface{}{
			"turn":                i,
			"normalized_fidelity": 0.75,
		})
		if err != nil {
			t.Fatalf("append turn %d: %v", i, err)
		}
	}
	return sink.Session(sessionID), sink
}

// #region canonical-tests
func TestCanonicalJSONSortsKeys(t *testing.T) {
	got, err := CanonicalJSON(map[string]interface{}{"b": 1, "a": 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != `{"a":2,"b":1}` {
		t.Fatalf("got %s", got)
	}
}

func TestCanonicalJSONCollapsesNumericForms(t *testing.T) {
	a, err := CanonicalJSON(map[string]interface{}{"x": 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := CanonicalJSON(map[string]interface{}{"x": 1.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("int and float forms diverge: %s vs %s", a, b)
	}
}

func TestCanonicalJSONNested(t *testing.T) {
	got, err := CanonicalJSON(map[string]interface{}{
		"outer": map[string]interface{}{"z": true, "a": "x"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != `{"outer":{"a":"x","z":true}}` {
		t.Fatalf("got %s", got)
	}
}

// #endregion canonical-tests

// #region hash-tests
func TestEventHashDeterministic(t *testing.T) {
	e := GovernanceEvent{
		Sequence:  1,
		SessionID: "s1",
		Type:      EventTurnStart,
		Timestamp: "2026-03-01T12:00:00Z",
		Payload:   map[string]interface{}{"turn": 1},
	}
	h1, err := EventHash(GenesisHash, e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h2, err := EventHash(GenesisHash, e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("hash not deterministic: %s vs %s", h1, h2)
	}
	if len(h1) != 64 {
		t.Fatalf("hash length = %d", len(h1))
	}
}

func TestEventHashCoversPayload(t *testing.T) {
	e := GovernanceEvent{Sequence: 1, SessionID: "s1", Type: EventTurnStart,
		Timestamp: "2026-03-01T12:00:00Z", Payload: map[string]interface{}{"turn": 1}}
	h1, _ := EventHash(GenesisHash, e)
	e.Payload["turn"] = 2
	h2, _ := EventHash(GenesisHash, e)
	if h1 == h2 {
		t.Fatal("payload change must change the hash")
	}
}

func TestEmbeddingDigest(t *testing.T) {
	d1 := EmbeddingDigest([]float32{0.1, 0.2, 0.3})
	d2 := EmbeddingDigest([]float32{0.1, 0.2, 0.3})
	d3 := EmbeddingDigest([]float32{0.1, 0.2, 0.4})
	if len(d1) != 16 {
		t.Fatalf("digest length = %d", len(d1))
	}
	if d1 != d2 {
		t.Fatal("digest not deterministic")
	}
	if d1 == d3 {
		t.Fatal("different vectors must digest differently")
	}
}

// #endregion hash-tests

// #region verify-tests
func TestVerifyCleanChain(t *testing.T) {
	chain, _ := buildChain(t, "s1", 5)
	if err := Verify(chain); err != nil {
		t.Fatalf("clean chain failed: %v", err)
	}
}

func TestVerifyEmptyChain(t *testing.T) {
	if err := Verify(nil); err != nil {
		t.Fatalf("empty chain failed: %v", err)
	}
}

func TestVerifyIdempotent(t *testing.T) {
	chain, _ := buildChain(t, "s1", 3)
	if err := Verify(chain); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	if err := Verify(chain); err != nil {
		t.Fatalf("second pass: %v", err)
	}
}

func TestVerifyDetectsPayloadTamper(t *testing.T) {
	chain, _ := buildChain(t, "s1", 5)
	chain[3].Payload["normalized_fidelity"] = 0.99

	err := Verify(chain)
	var tampered *TamperError
	if !errors.As(err, &tampered) {
		t.Fatalf("expected TamperError, got %v", err)
	}
	if tampered.Index != 3 {
		t.Fatalf("tamper index = %d, want 3", tampered.Index)
	}
}

func TestVerifyDetectsHashTamper(t *testing.T) {
	chain, _ := buildChain(t, "s1", 3)
	chain[1].Hash = GenesisHash

	err := Verify(chain)
	var tampered *TamperError
	if !errors.As(err, &tampered) {
		t.Fatalf("expected TamperError, got %v", err)
	}
	if tampered.Index != 1 {
		t.Fatalf("tamper index = %d, want 1", tampered.Index)
	}
}

func TestVerifyDetectsDeletedEvent(t *testing.T) {
	chain, _ := buildChain(t, "s1", 5)
	// Drop an interior event; the link from its successor must break.
	cut := append(append([]GovernanceEvent{}, chain[:2]...), chain[3:]...)

	err := Verify(cut)
	var tampered *TamperError
	if !errors.As(err, &tampered) {
		t.Fatalf("expected TamperError, got %v", err)
	}
	if tampered.Index != 2 {
		t.Fatalf("tamper index = %d, want 2", tampered.Index)
	}
}

func TestVerifyGenesisAnchor(t *testing.T) {
	chain, _ := buildChain(t, "s1", 1)
	if chain[0].PrevHash != GenesisHash {
		t.Fatalf("first event anchors to %s", chain[0].PrevHash)
	}
}

// #endregion verify-tests
