package store

import (
	"context"
	"database/sql"
	"fmt"
)

// ReadSession returns every event of a session with its mutations.
// Returns an empty slice (not nil) for an unknown session.
func (s *Store) ReadSession(ctx context.Context, session string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session, seq, kind, payload
		FROM events
		WHERE session = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, session)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	index := make(map[string]int)
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.Session, &ev.Seq, &ev.Kind, &ev.Payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		index[ev.ID] = len(entries)
		entries = append(entries, Entry{Event: ev, Mutations: []Mutation{}})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	mutations, err := s.sessionMutations(ctx, session)
	if err != nil {
		return nil, err
	}
	for _, m := range mutations {
		i, ok := index[m.EventID]
		if !ok {
			continue
		}
		entries[i].Mutations = append(entries[i].Mutations, m)
	}
	return entries, nil
}

func (s *Store) sessionMutations(ctx context.Context, session string) ([]Mutation, error) {
	return s.QueryMutations(ctx, MutationQuery{Session: session})
}

// Sessions lists the journaled sessions ordered by id.
func (s *Store) Sessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session, COUNT(*), MIN(seq), MAX(seq)
		FROM events
		GROUP BY session
		ORDER BY session COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	out := []Session{}
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Events, &sess.FirstSeq, &sess.LastSeq); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

// LastSeq returns the highest seq used by a session, across events and
// mutations, or 0 for an unknown session. An engine resuming the session
// starts its clock here.
func (s *Store) LastSeq(ctx context.Context, session string) (int64, error) {
	var last sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(seq) FROM (
			SELECT seq FROM events WHERE session = ?
			UNION ALL
			SELECT m.seq FROM mutations m JOIN events e ON e.id = m.event_id WHERE e.session = ?
		)
	`, session, session).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("last seq of %s: %w", session, err)
	}
	return last.Int64, nil
}
