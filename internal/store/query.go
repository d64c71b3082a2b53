package store

import (
	"context"
	"fmt"
	"strings"
)

// MutationQuery selects journaled mutations. Empty fields match anything.
type MutationQuery struct {
	Session   string
	Generator string
	Element   string
	Ops       []string
}

// compile turns q into parameterized SQL. Values are always bound as
// parameters, and every query carries a total ORDER BY.
func (q MutationQuery) compile() (string, []any) {
	var (
		preds  []string
		params []any
	)
	eq := func(field, value string) {
		if value == "" {
			return
		}
		preds = append(preds, field+" = ?")
		params = append(params, value)
	}

	eq("e.session", q.Session)
	eq("m.generator_id", q.Generator)
	eq("m.element_id", q.Element)
	if len(q.Ops) > 0 {
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(q.Ops)), ", ")
		preds = append(preds, "m.op IN ("+marks+")")
		for _, op := range q.Ops {
			params = append(params, op)
		}
	}

	var b strings.Builder
	b.WriteString("SELECT m.event_id, m.seq, m.op, m.generator_id, m.element_id, m.connection_id, m.value")
	b.WriteString(" FROM mutations m JOIN events e ON e.id = m.event_id")
	if len(preds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(preds, " AND "))
	}
	b.WriteString(" ORDER BY m.seq ASC, m.event_id COLLATE BINARY ASC")
	return b.String(), params
}

// QueryMutations returns the mutations matching q in seq order.
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) QueryMutations(ctx context.Context, q MutationQuery) ([]Mutation, error) {
	query, params := q.compile()
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query mutations: %w", err)
	}
	defer rows.Close()

	out := []Mutation{}
	for rows.Next() {
		var m Mutation
		if err := rows.Scan(&m.EventID, &m.Seq, &m.Op, &m.Generator, &m.Element, &m.Connection, &m.Value); err != nil {
			return nil, fmt.Errorf("scan mutation: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mutations: %w", err)
	}
	return out, nil
}
