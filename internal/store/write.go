package store

import (
	"context"
	"fmt"
)

// WriteEvent journals an event. A second write with the same id is ignored.
func (s *Store) WriteEvent(ctx context.Context, ev Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (id, session, seq, kind, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, ev.ID, ev.Session, ev.Seq, ev.Kind, ev.Payload)
	if err != nil {
		return fmt.Errorf("write event %s: %w", ev.ID, err)
	}
	return nil
}

// WriteMutation journals a mutation. The referenced event must already be
// journaled. A second write of the same (event, seq) is ignored.
func (s *Store) WriteMutation(ctx context.Context, m Mutation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO mutations (event_id, seq, op, generator_id, element_id, connection_id, value)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(event_id, seq) DO NOTHING
	`, m.EventID, m.Seq, m.Op, m.Generator, m.Element, m.Connection, m.Value)
	if err != nil {
		return fmt.Errorf("write mutation %s/%d: %w", m.EventID, m.Seq, err)
	}
	return nil
}
