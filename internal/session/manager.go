package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/primacy-governor/internal/attractor"
	"github.com/danielpatrickdp/primacy-governor/internal/trace"
)

// #region manager

// Manager owns all live sessions. Sessions are independent units of work:
// turns for different sessions may run on concurrent workers, while each
// session's own mutex serializes its turns.
type Manager struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	collector *trace.Collector
	logger    *zap.Logger
}

// NewManager creates a manager emitting into the given collector.
func NewManager(collector *trace.Collector, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		sessions:  make(map[string]*Session),
		collector: collector,
		logger:    logger.Named("session"),
	}
}

// #endregion manager

// #region start

// StartSession binds a PA to a new session and opens its event chain.
// An empty id is replaced with a generated one; the chosen id is returned.
func (m *Manager) StartSession(id string, cfg PAConfig) (string, error) {
	pa, err := attractor.New(cfg.Name, cfg.Purpose, cfg.Domain, cfg.Vector, cfg.Thresholds)
	if err != nil {
		return "", fmt.Errorf("start session: %w", err)
	}
	if id == "" {
		id = uuid.New().String()
	}

	m.mu.Lock()
	if _, ok := m.sessions[id]; ok {
		m.mu.Unlock()
		return "", fmt.Errorf("session %s: %w", id, ErrSessionExists)
	}
	s := newSession(id, pa, m.collector, m.logger)
	m.sessions[id] = s
	m.mu.Unlock()

	s.append(trace.EventSessionStart, map[string]interface{}{
		"pa_name": cfg.Name,
		"domain":  cfg.Domain,
	})
	// Thresholds ride along so the session is reconstructible from the
	// chain alone.
	s.append(trace.EventPAEstablished, map[string]interface{}{
		"pa_name":        cfg.Name,
		"purpose":        cfg.Purpose,
		"domain":         cfg.Domain,
		"dimensions":     pa.Dim(),
		"embedding_hash": trace.EmbeddingDigest(cfg.Vector),
		"thresholds":     cfg.Thresholds,
	})
	m.logger.Info("session started", zap.String("session_id", id), zap.String("pa", cfg.Name))
	return id, nil
}

// #endregion start

// #region process

// ProcessTurn governs one turn of an existing session.
func (m *Manager) ProcessTurn(in TurnInput) (Verdict, error) {
	s, err := m.lookup(in.SessionID)
	if err != nil {
		return Verdict{}, err
	}
	return s.process(in)
}

// #endregion process

// #region acknowledge

// Acknowledge clears a blocked session on behalf of an authenticated
// operator (authentication is the caller's concern). Fails with
// drift.ErrNotBlocked when the session is not in BLOCK.
func (m *Manager) Acknowledge(sessionID string) error {
	s, err := m.lookup(sessionID)
	if err != nil {
		return err
	}
	return s.acknowledge()
}

// #endregion acknowledge

// #region end

// EndSession closes a session's chain and removes it from the live set.
func (m *Manager) EndSession(sessionID string) error {
	s, err := m.lookup(sessionID)
	if err != nil {
		return err
	}
	if err := s.close(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	m.logger.Info("session ended", zap.String("session_id", sessionID))
	return nil
}

// #endregion end

// #region lookup

// Session returns a live session by id.
func (m *Manager) Session(sessionID string) (*Session, error) {
	return m.lookup(sessionID)
}

func (m *Manager) lookup(sessionID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}
	return s, nil
}

// #endregion lookup
