package trace

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// #region schema

const schema = `
CREATE TABLE IF NOT EXISTS governance_events (
	session_id     TEXT NOT NULL,
	seq            INTEGER NOT NULL,
	event_type     TEXT NOT NULL,
	timestamp      TEXT NOT NULL,
	payload_json   TEXT,
	previous_hash  TEXT NOT NULL,
	event_hash     TEXT NOT NULL,
	PRIMARY KEY (session_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_governance_events_type
ON governance_events(session_id, event_type);
`

// #endregion schema

// #region store

// Store persists event chains in SQLite. Rows are insert-only; there is no
// update or delete path.
type Store struct {
	db *sql.DB
}

// NewStore opens the database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for read-only inspection tooling.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion store

// #region append

// Append inserts one event row.
func (s *Store) Append(e GovernanceEvent) error {
	var payloadPtr interface{}
	if e.Payload != nil {
		b, err := json.Marshal(e.Payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		payloadPtr = string(b)
	}

	_, err := s.db.Exec(
		`INSERT INTO governance_events (session_id, seq, event_type, timestamp, payload_json, previous_hash, event_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.Sequence, string(e.Type), e.Timestamp, payloadPtr, e.PrevHash, e.Hash,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// #endregion append

// #region tail

// Tail returns the last sequence and hash of a session chain.
func (s *Store) Tail(sessionID string) (int, string, bool, error) {
	var seq int
	var hash string
	err := s.db.QueryRow(
		`SELECT seq, event_hash FROM governance_events
		 WHERE session_id = ? ORDER BY seq DESC LIMIT 1`, sessionID,
	).Scan(&seq, &hash)
	if err == sql.ErrNoRows {
		return 0, "", false, nil
	}
	if err != nil {
		return 0, "", false, fmt.Errorf("tail %s: %w", sessionID, err)
	}
	return seq, hash, true, nil
}

// #endregion tail

// #region load

// LoadChain reads a session's chain in sequence order.
func (s *Store) LoadChain(sessionID string) ([]GovernanceEvent, error) {
	rows, err := s.db.Query(
		`SELECT session_id, seq, event_type, timestamp, payload_json, previous_hash, event_hash
		 FROM governance_events WHERE session_id = ? ORDER BY seq ASC`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("load chain %s: %w", sessionID, err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListSessions returns every session id present in the store.
func (s *Store) ListSessions() ([]string, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT session_id FROM governance_events ORDER BY session_id`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanEvents(rows *sql.Rows) ([]GovernanceEvent, error) {
	var events []GovernanceEvent
	for rows.Next() {
		var e GovernanceEvent
		var typ string
		var payloadJSON sql.NullString
		if err := rows.Scan(&e.SessionID, &e.Sequence, &typ, &e.Timestamp, &payloadJSON, &e.PrevHash, &e.Hash); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Type = EventType(typ)
		if payloadJSON.Valid {
			if err := json.Unmarshal([]byte(payloadJSON.String), &e.Payload); err != nil {
				return nil, fmt.Errorf("unmarshal payload seq %d: %w", e.Sequence, err)
			}
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// #endregion load
