package trace

import (
	"fmt"
	"sync"
	"time"
)

// #region sink

// Sink receives fully hashed events in append order. Implementations must be
// append-only: a previously written event is never mutated or removed.
type Sink interface {
	Append(e GovernanceEvent) error
}

// tailReader lets a collector resume chains that already exist in the sink.
type tailReader interface {
	Tail(sessionID string) (seq int, hash string, ok bool, err error)
}

// MemorySink keeps events in memory, for tests and in-process export.
type MemorySink struct {
	mu     sync.Mutex
	events []GovernanceEvent
}

// Append stores a copy of the event.
func (m *MemorySink) Append(e GovernanceEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

// Events returns all appended events in order.
func (m *MemorySink) Events() []GovernanceEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]GovernanceEvent, len(m.events))
	copy(out, m.events)
	return out
}

// Session returns the chain for one session in append order.
func (m *MemorySink) Session(sessionID string) []GovernanceEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []GovernanceEvent
	for _, e := range m.events {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	return out
}

// #endregion sink

// #region counters

// Counters are the aggregate view that survives the minimal privacy mode.
type Counters struct {
	Events int
	ByType map[EventType]int
}

// #endregion counters

// #region collector

// chainTail tracks the last appended position of one session chain.
type chainTail struct {
	seq  int
	hash string
}

// Collector is the governance trace collector: it hashes events onto their
// session chain and hands them to the sink. Safe for concurrent use across
// sessions; within one session callers append in turn order.
type Collector struct {
	mu       sync.Mutex
	mode     PrivacyMode
	sink     Sink
	tails    map[string]chainTail
	counters map[string]*Counters
	now      func() time.Time
}

// NewCollector creates a collector in the given privacy mode. sink may be
// nil only in the disabled mode.
func NewCollector(mode PrivacyMode, sink Sink) *Collector {
	return &Collector{
		mode:     mode,
		sink:     sink,
		tails:    make(map[string]chainTail),
		counters: make(map[string]*Counters),
		now:      time.Now,
	}
}

// Enabled reports whether events are being recorded at all.
func (c *Collector) Enabled() bool {
	return c.mode != PrivacyDisabled
}

// Mode returns the collector's privacy mode.
func (c *Collector) Mode() PrivacyMode {
	return c.mode
}

// #endregion collector

// #region append

// Append creates, hashes, and stores one event on the session's chain and
// returns it. In the disabled mode it is a no-op returning a zero event.
func (c *Collector) Append(sessionID string, t EventType, payload map[string]interface{}) (GovernanceEvent, error) {
	if c.mode == PrivacyDisabled {
		return GovernanceEvent{}, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tail, err := c.tailLocked(sessionID)
	if err != nil {
		return GovernanceEvent{}, err
	}

	e := GovernanceEvent{
		Sequence:  tail.seq + 1,
		SessionID: sessionID,
		Type:      t,
		Timestamp: c.now().UTC().Format(time.RFC3339Nano),
		Payload:   c.applyPrivacy(payload),
		PrevHash:  tail.hash,
	}
	e.Hash, err = EventHash(e.PrevHash, e)
	if err != nil {
		return GovernanceEvent{}, fmt.Errorf("hash event: %w", err)
	}
	if err := c.sink.Append(e); err != nil {
		return GovernanceEvent{}, fmt.Errorf("append event: %w", err)
	}

	c.tails[sessionID] = chainTail{seq: e.Sequence, hash: e.Hash}
	c.countLocked(sessionID, t)
	return e, nil
}

// Correct appends a correction event referencing an earlier sequence. The
// referenced event is left untouched.
func (c *Collector) Correct(sessionID string, correctedSeq int, payload map[string]interface{}) (GovernanceEvent, error) {
	p := map[string]interface{}{"corrects_seq": correctedSeq}
	for k, v := range payload {
		p[k] = v
	}
	return c.Append(sessionID, EventCorrection, p)
}

// tailLocked returns the session tail, resuming from the sink when the chain
// predates this collector.
func (c *Collector) tailLocked(sessionID string) (chainTail, error) {
	if t, ok := c.tails[sessionID]; ok {
		return t, nil
	}
	if r, ok := c.sink.(tailReader); ok {
		seq, hash, found, err := r.Tail(sessionID)
		if err != nil {
			return chainTail{}, fmt.Errorf("resume chain: %w", err)
		}
		if found {
			t := chainTail{seq: seq, hash: hash}
			c.tails[sessionID] = t
			return t, nil
		}
	}
	return chainTail{seq: 0, hash: GenesisHash}, nil
}

// countLocked maintains the aggregate counters.
func (c *Collector) countLocked(sessionID string, t EventType) {
	cnt, ok := c.counters[sessionID]
	if !ok {
		cnt = &Counters{ByType: make(map[EventType]int)}
		c.counters[sessionID] = cnt
	}
	cnt.Events++
	cnt.ByType[t]++
}

// #endregion append

// #region privacy-apply

// applyPrivacy filters a payload according to the collector's mode.
func (c *Collector) applyPrivacy(payload map[string]interface{}) map[string]interface{} {
	switch c.mode {
	case PrivacyMinimal:
		return nil
	case PrivacyAnonymized:
		if payload == nil {
			return nil
		}
		out := make(map[string]interface{}, len(payload))
		for k, v := range payload {
			if userTextKeys[k] {
				if s, ok := v.(string); ok {
					out[k] = HashText(s)
					continue
				}
			}
			out[k] = v
		}
		return out
	default:
		return payload
	}
}

// #endregion privacy-apply

// #region accessors

// TailHash returns the session chain's current tail hash (genesis if the
// chain is empty).
func (c *Collector) TailHash(sessionID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, err := c.tailLocked(sessionID)
	if err != nil {
		return GenesisHash
	}
	return t.hash
}

// SessionCounters returns the aggregate counters for a session.
func (c *Collector) SessionCounters(sessionID string) Counters {
	c.mu.Lock()
	defer c.mu.Unlock()
	cnt, ok := c.counters[sessionID]
	if !ok {
		return Counters{ByType: map[EventType]int{}}
	}
	out := Counters{Events: cnt.Events, ByType: make(map[EventType]int, len(cnt.ByType))}
	for k, v := range cnt.ByType {
		out.ByType[k] = v
	}
	return out
}

// #endregion accessors
