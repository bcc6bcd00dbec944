package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/offload/internal/ir"
)

// StartSession inserts a session header and returns its id, a UUIDv7 so
// session ids sort by creation time.
func (s *Store) StartSession(ctx context.Context, profileHash, engineVersion string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("start session: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, started_seq, profile_hash, engine_version)
		VALUES (?, ?, ?, ?)
	`, id.String(), 0, profileHash, engineVersion)
	if err != nil {
		return "", fmt.Errorf("start session: %w", err)
	}
	return id.String(), nil
}

// AppendEvent inserts an event for a session.
// Uses ON CONFLICT(session_id, seq) DO NOTHING for idempotency - a second
// write with the same seq is silently ignored.
//
// Note: The session must exist (foreign key constraint).
func (s *Store) AppendEvent(ctx context.Context, sessionID string, ev ir.JournalEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events
		(session_id, seq, kind, entry_id, tx, detail, buffer_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, seq) DO NOTHING
	`,
		sessionID,
		ev.Seq,
		string(ev.Kind),
		int64(ev.EntryID),
		string(ev.Tx),
		ev.Detail,
		ev.BufferHash,
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// SessionJournal appends engine events to one session.
// It satisfies engine.Journal.
type SessionJournal struct {
	store   *Store
	session string
}

// NewSessionJournal starts a session and returns a journal writing to it.
func NewSessionJournal(ctx context.Context, s *Store, profileHash, engineVersion string) (*SessionJournal, error) {
	id, err := s.StartSession(ctx, profileHash, engineVersion)
	if err != nil {
		return nil, err
	}
	return &SessionJournal{store: s, session: id}, nil
}

// Session returns the session id.
func (j *SessionJournal) Session() string {
	return j.session
}

// Record appends ev to the session.
func (j *SessionJournal) Record(ctx context.Context, ev ir.JournalEvent) error {
	return j.store.AppendEvent(ctx, j.session, ev)
}
