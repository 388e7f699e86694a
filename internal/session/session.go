// Package session runs the per-session governance pipeline: fidelity
// assessment, drift tracking, escalation routing, and trace emission for
// every turn. A session is a single-writer sequential pipeline; its mutex
// serializes turns so drift state and the hash chain see arrival order.
package session

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/primacy-governor/internal/attractor"
	"github.com/danielpatrickdp/primacy-governor/internal/drift"
	"github.com/danielpatrickdp/primacy-governor/internal/escalate"
	"github.com/danielpatrickdp/primacy-governor/internal/fidelity"
	"github.com/danielpatrickdp/primacy-governor/internal/trace"
)

// #region session

// Session binds one attractor to one conversation and governs its turns.
type Session struct {
	mu sync.Mutex

	id        string
	pa        *attractor.Attractor
	engine    *fidelity.Engine
	router    *escalate.Router
	tracker   *drift.Tracker
	collector *trace.Collector
	logger    *zap.Logger

	turnCount int
	closed    bool
}

func newSession(id string, pa *attractor.Attractor, collector *trace.Collector, logger *zap.Logger) *Session {
	return &Session{
		id:        id,
		pa:        pa,
		engine:    fidelity.NewEngine(pa.Thresholds),
		router:    escalate.NewRouter(pa.Thresholds),
		tracker:   drift.NewTracker(pa.Thresholds),
		collector: collector,
		logger:    logger.With(zap.String("session_id", id)),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// #endregion session

// #region process-turn

// process governs one turn. Embedding errors reject the turn without
// touching drift or baseline state and without appending any event.
func (s *Session) process(in TurnInput) (Verdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Verdict{}, fmt.Errorf("session %s: %w", s.id, ErrSessionClosed)
	}
	next := s.turnCount + 1
	if in.TurnIndex != 0 && in.TurnIndex != next {
		return Verdict{}, fmt.Errorf("session %s: turn index %d out of order, expected %d", s.id, in.TurnIndex, next)
	}

	// Blocked steady state: refuse without scoring, await acknowledgment.
	if s.tracker.Blocked() {
		s.turnCount = next
		v := Verdict{
			SessionID: s.id,
			Turn:      next,
			Action:    ActionAwaitingAck,
			Tier:      escalate.TierExpert,
			DriftZone: s.tracker.Zone(),
			Rationale: "session blocked pending human acknowledgment",
		}
		s.append(trace.EventTurnStart, map[string]interface{}{
			"turn":       next,
			"user_input": in.UserText,
		})
		s.append(trace.EventTurnComplete, map[string]interface{}{
			"turn":   next,
			"action": string(v.Action),
			"tier":   int(v.Tier),
		})
		return v, nil
	}

	// Invalid embeddings reject the single turn before anything is appended:
	// no event, no turn count, no drift update.
	a, err := s.engine.AssessTightened(in.Embedding, s.pa.Vector(), s.tracker.Margin())
	if err != nil {
		return Verdict{}, fmt.Errorf("session %s turn %d: %w", s.id, next, err)
	}

	s.turnCount = next
	s.append(trace.EventTurnStart, map[string]interface{}{
		"turn":           next,
		"embedding_hash": trace.EmbeddingDigest(in.Embedding),
		"user_input":     in.UserText,
	})

	obs := s.tracker.Observe(a.NormalizedFidelity)
	route := s.router.Route(a.NormalizedFidelity, obs.Zone)
	v := s.verdict(next, a, obs, route)

	s.append(trace.EventFidelityCalculated, map[string]interface{}{
		"turn":                next,
		"raw_similarity":      a.RawSimilarity,
		"normalized_fidelity": a.NormalizedFidelity,
		"strength":            a.Strength,
		"fidelity_zone":       string(a.Zone),
		"verdict":             string(a.Verdict),
		"effective_threshold": a.EffectiveThreshold,
		"drift":               obs.Drift,
		"drift_zone":          string(obs.Zone),
		"baseline_captured":   obs.BaselineCaptured,
	})
	if obs.MandatoryReview {
		s.append(trace.EventMandatoryReview, map[string]interface{}{
			"turn":       next,
			"drift":      obs.Drift,
			"drift_zone": string(obs.Zone),
		})
	}
	if v.Action != ActionAllow {
		s.append(trace.EventInterventionTriggered, map[string]interface{}{
			"turn":      next,
			"action":    string(v.Action),
			"tier":      int(v.Tier),
			"strength":  a.Strength,
			"rationale": v.Rationale,
		})
	}
	s.append(trace.EventTurnComplete, map[string]interface{}{
		"turn":   next,
		"action": string(v.Action),
		"tier":   int(v.Tier),
	})

	s.logger.Debug("turn governed",
		zap.Int("turn", next),
		zap.Float64("fidelity", a.NormalizedFidelity),
		zap.String("action", string(v.Action)),
		zap.String("drift_zone", string(obs.Zone)))
	return v, nil
}

// verdict composes the fidelity verdict, drift observation, and routing
// decision into the turn outcome.
func (s *Session) verdict(turn int, a fidelity.Assessment, obs drift.Observation, route escalate.Decision) Verdict {
	v := Verdict{
		SessionID:          s.id,
		Turn:               turn,
		Tier:               route.Tier,
		RawSimilarity:      a.RawSimilarity,
		NormalizedFidelity: a.NormalizedFidelity,
		Strength:           a.Strength,
		FidelityZone:       a.Zone,
		DriftZone:          obs.Zone,
		Drift:              obs.Drift,
		Rationale:          route.Rationale,
	}

	switch {
	case a.Verdict == fidelity.VerdictHardBlock:
		// Layer-1 always blocks the turn regardless of drift zone.
		v.Action = ActionHardBlock
		v.Rationale = fmt.Sprintf("raw similarity %.4f below baseline floor", a.RawSimilarity)
	case obs.Escalated && obs.Zone == drift.ZoneBlock:
		v.Action = ActionSessionBlocked
		v.Tier = escalate.TierExpert
		v.Rationale = fmt.Sprintf("drift %.1f%% crossed block boundary", obs.Drift*100)
	case s.tracker.Blocked():
		v.Action = ActionAwaitingAck
		v.Tier = escalate.TierExpert
	case a.Verdict == fidelity.VerdictIntervention:
		switch route.Tier {
		case escalate.TierAutonomous:
			v.Action = ActionIntervene
		case escalate.TierPolicyAssisted:
			v.Action = ActionDeferPolicy
		default:
			v.Action = ActionDeferExpert
		}
	default:
		switch route.Tier {
		case escalate.TierAutonomous:
			v.Action = ActionAllow
		case escalate.TierPolicyAssisted:
			v.Action = ActionDeferPolicy
		default:
			v.Action = ActionDeferExpert
		}
	}
	return v
}

// #endregion process-turn

// #region acknowledge

// acknowledge clears a BLOCK after operator review and records the event.
func (s *Session) acknowledge() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("session %s: %w", s.id, ErrSessionClosed)
	}
	if err := s.tracker.Acknowledge(); err != nil {
		return fmt.Errorf("session %s: %w", s.id, err)
	}
	s.append(trace.EventHumanAcknowledgment, map[string]interface{}{
		"new_zone": string(s.tracker.Zone()),
	})
	s.logger.Info("block acknowledged", zap.String("new_zone", string(s.tracker.Zone())))
	return nil
}

// #endregion acknowledge

// #region close

// close ends the session; its final event closes the chain. No turn may be
// appended afterwards.
func (s *Session) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("session %s: %w", s.id, ErrSessionClosed)
	}
	s.closed = true

	payload := map[string]interface{}{
		"turns":      s.turnCount,
		"drift_zone": string(s.tracker.Zone()),
		"blocked":    s.tracker.Blocked(),
	}
	if b := s.tracker.Baseline(); b != nil {
		payload["baseline_mean"] = b.Mean
		payload["baseline_stddev"] = b.StdDev
	}
	s.append(trace.EventSessionEnd, payload)
	return nil
}

// #endregion close

// #region state-accessors

// Zone returns the current drift zone.
func (s *Session) Zone() drift.Zone {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Zone()
}

// Blocked reports whether the session awaits acknowledgment.
func (s *Session) Blocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Blocked()
}

// TurnCount returns the number of turns submitted so far.
func (s *Session) TurnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turnCount
}

// ChainTail returns the tail hash of the session's event chain.
func (s *Session) ChainTail() string {
	return s.collector.TailHash(s.id)
}

// #endregion state-accessors

// #region append-helper

// append records an event, logging rather than failing the turn when the
// sink errors: governance verdicts must not depend on sink health, and the
// tamper check will surface any gap.
func (s *Session) append(t trace.EventType, payload map[string]interface{}) {
	if _, err := s.collector.Append(s.id, t, payload); err != nil {
		s.logger.Error("trace append failed", zap.String("event_type", string(t)), zap.Error(err))
	}
}

// #endregion append-helper
