package trace

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "governance.db")
	store, err := NewStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, path
}

// #region store-tests
func TestStoreRoundTrip(t *testing.T) {
	store, _ := openStore(t)
	c := NewCollector(PrivacyFull, store)
	c.now = fixedClock()

	_, err := c.Append("s1", EventSessionStart, map[string]interface{}{"pa_name": "test"})
	require.NoError(t, err)
	_, err = c.Append("s1", EventFidelityCalculated, map[string]interface{}{
		"turn":                1,
		"normalized_fidelity": 0.75,
	})
	require.NoError(t, err)

	chain, err := store.LoadChain("s1")
	require.NoError(t, err)
	require.Len(t, chain, 2)
	require.Equal(t, EventSessionStart, chain[0].Type)

	// The chain must verify after the SQLite round trip: canonical
	// serialization has to survive payload storage as JSON text.
	require.NoError(t, Verify(chain))
}

func TestStoreTail(t *testing.T) {
	store, _ := openStore(t)
	c := NewCollector(PrivacyFull, store)
	c.now = fixedClock()

	_, _, found, err := store.Tail("s1")
	require.NoError(t, err)
	require.False(t, found)

	e1, err := c.Append("s1", EventSessionStart, nil)
	require.NoError(t, err)
	e2, err := c.Append("s1", EventTurnStart, nil)
	require.NoError(t, err)
	_ = e1

	seq, hash, found, err := store.Tail("s1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 2, seq)
	require.Equal(t, e2.Hash, hash)
}

func TestStoreResumeAcrossCollectors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "governance.db")

	store, err := NewStore(path)
	require.NoError(t, err)
	c1 := NewCollector(PrivacyFull, store)
	c1.now = fixedClock()
	_, err = c1.Append("s1", EventSessionStart, nil)
	require.NoError(t, err)
	_, err = c1.Append("s1", EventTurnStart, map[string]interface{}{"turn": 1})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// A fresh collector over a reopened store continues the same chain.
	store2, err := NewStore(path)
	require.NoError(t, err)
	defer store2.Close()
	c2 := NewCollector(PrivacyFull, store2)
	c2.now = func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }
	_, err = c2.Append("s1", EventTurnComplete, map[string]interface{}{"turn": 1})
	require.NoError(t, err)

	chain, err := store2.LoadChain("s1")
	require.NoError(t, err)
	require.Len(t, chain, 3)
	require.Equal(t, 3, chain[2].Sequence)
	require.NoError(t, Verify(chain))
}

func TestStoreListSessions(t *testing.T) {
	store, _ := openStore(t)
	c := NewCollector(PrivacyFull, store)
	c.now = fixedClock()

	_, err := c.Append("beta", EventSessionStart, nil)
	require.NoError(t, err)
	_, err = c.Append("alpha", EventSessionStart, nil)
	require.NoError(t, err)

	ids, err := store.ListSessions()
	require.NoError(t, err)
	require.Equal(t, []string{"alpha", "beta"}, ids)
}

func TestStoreRejectsDuplicateSequence(t *testing.T) {
	store, _ := openStore(t)
	e := GovernanceEvent{Sequence: 1, SessionID: "s1", Type: EventSessionStart,
		Timestamp: "2026-03-01T12:00:00Z", PrevHash: GenesisHash, Hash: "abc"}
	require.NoError(t, store.Append(e))
	// The primary key makes rewriting history impossible at the store level.
	require.Error(t, store.Append(e))
}

// #endregion store-tests
