package trace

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// #region jsonl-tests
func TestJSONLRoundTrip(t *testing.T) {
	chain, _ := buildChain(t, "s1", 3)

	var buf bytes.Buffer
	if err := ExportJSONL(&buf, chain, PrivacyFull); err != nil {
		t.Fatalf("export: %v", err)
	}
	back, err := ReadJSONL(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	// Payload numbers change Go type across the JSON round trip, but the
	// chain identity (sequencing, linkage, hashes) must be untouched.
	project := func(chain []GovernanceEvent) []GovernanceEvent {
		out := make([]GovernanceEvent, len(chain))
		for i, e := range chain {
			e.Payload = nil
			out[i] = e
		}
		return out
	}
	if diff := cmp.Diff(project(chain), project(back)); diff != "" {
		t.Fatalf("round trip diverged (-want +got):\n%s", diff)
	}
	if err := Verify(back); err != nil {
		t.Fatalf("verify after round trip: %v", err)
	}
}

func TestJSONLAnonymizedExportRandomizesSession(t *testing.T) {
	chain, _ := buildChain(t, "live-session", 2)

	var buf bytes.Buffer
	if err := ExportJSONL(&buf, chain, PrivacyAnonymized); err != nil {
		t.Fatalf("export: %v", err)
	}
	back, err := ReadJSONL(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(back) != len(chain) {
		t.Fatalf("event count changed: %d", len(back))
	}
	if back[0].SessionID == "live-session" {
		t.Fatal("anonymized export kept the live session id")
	}
	// Linkage inside the export is preserved: every line carries the same
	// replacement id.
	for i, e := range back {
		if e.SessionID != back[0].SessionID {
			t.Fatalf("line %d has a different session id", i)
		}
	}
}

func TestJSONLEmptyInput(t *testing.T) {
	back, err := ReadJSONL(bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(back) != 0 {
		t.Fatalf("expected empty chain, got %d events", len(back))
	}
}

func TestJSONLRejectsGarbage(t *testing.T) {
	if _, err := ReadJSONL(bytes.NewReader([]byte("not json\n"))); err == nil {
		t.Fatal("expected parse error")
	}
}

// #endregion jsonl-tests
