package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/offload/internal/ir"
)

// ReadSessions returns every session header with its event count, oldest
// first. Session ids are UUIDv7, so id order is creation order.
func (s *Store) ReadSessions(ctx context.Context) ([]ir.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.profile_hash, s.engine_version, COUNT(e.id)
		FROM sessions s
		LEFT JOIN events e ON e.session_id = s.id
		GROUP BY s.id
		ORDER BY s.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []ir.Session{}
	for rows.Next() {
		var sess ir.Session
		if err := rows.Scan(&sess.ID, &sess.ProfileHash, &sess.EngineVersion, &sess.Events); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// ReadSession retrieves a single session header.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadSession(ctx context.Context, id string) (ir.Session, error) {
	var sess ir.Session
	err := s.db.QueryRowContext(ctx, `
		SELECT s.id, s.profile_hash, s.engine_version,
		       (SELECT COUNT(*) FROM events e WHERE e.session_id = s.id)
		FROM sessions s
		WHERE s.id = ?
	`, id).Scan(&sess.ID, &sess.ProfileHash, &sess.EngineVersion, &sess.Events)
	if err != nil {
		return ir.Session{}, err
	}
	return sess, nil
}

// LatestSession returns the most recently started session.
// Returns sql.ErrNoRows if the store is empty.
func (s *Store) LatestSession(ctx context.Context) (ir.Session, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM sessions ORDER BY id COLLATE BINARY DESC LIMIT 1
	`).Scan(&id)
	if err != nil {
		return ir.Session{}, err
	}
	return s.ReadSession(ctx, id)
}

// ReadEvents returns a session's events ordered by seq ASC, id ASC.
// Returns an empty slice (not nil) if the session has no events.
func (s *Store) ReadEvents(ctx context.Context, sessionID string) ([]ir.JournalEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, kind, entry_id, tx, detail, buffer_hash
		FROM events
		WHERE session_id = ?
		ORDER BY seq ASC, id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return scanEvents(rows)
}

// ReadEventsByKind returns a session's events of one kind, ordered like
// ReadEvents.
func (s *Store) ReadEventsByKind(ctx context.Context, sessionID string, kind ir.EventKind) ([]ir.JournalEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, kind, entry_id, tx, detail, buffer_hash
		FROM events
		WHERE session_id = ? AND kind = ?
		ORDER BY seq ASC, id ASC
	`, sessionID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return scanEvents(rows)
}

// scanEvents drains and closes rows.
func scanEvents(rows *sql.Rows) ([]ir.JournalEvent, error) {
	defer rows.Close()

	events := []ir.JournalEvent{}
	for rows.Next() {
		var ev ir.JournalEvent
		var kind, tx string
		var entryID int64
		if err := rows.Scan(&ev.Seq, &kind, &entryID, &tx, &ev.Detail, &ev.BufferHash); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Kind = ir.EventKind(kind)
		ev.EntryID = uint64(entryID)
		ev.Tx = ir.TxID(tx)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
