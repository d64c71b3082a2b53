package store

// Event is one journaled lifecycle event.
type Event struct {
	ID      string `json:"id"`
	Session string `json:"session"`
	Seq     int64  `json:"seq"`
	Kind    string `json:"kind"`
	// Payload is canonical JSON.
	Payload string `json:"payload"`
}

// Mutation is one state change caused by an event.
type Mutation struct {
	EventID    string `json:"event_id"`
	Seq        int64  `json:"seq"`
	Op         string `json:"op"`
	Generator  string `json:"generator,omitempty"`
	Element    string `json:"element,omitempty"`
	Connection string `json:"connection,omitempty"`
	Value      int64  `json:"value"`
}

// Entry is an event together with the mutations it caused, in seq order.
type Entry struct {
	Event     Event      `json:"event"`
	Mutations []Mutation `json:"mutations"`
}

// Session summarizes one engine session in the journal.
type Session struct {
	ID       string `json:"id"`
	Events   int    `json:"events"`
	FirstSeq int64  `json:"first_seq"`
	LastSeq  int64  `json:"last_seq"`
}
