package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/stepfield/internal/engine"
	"github.com/roach88/stepfield/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Session  string

	// Optional mutation filters. Stats always cover the whole session.
	Op        string
	Generator string
	Element   string
}

func (o *TraceOptions) filtered() bool {
	return o.Op != "" || o.Generator != "" || o.Element != ""
}

// TraceEvent is one journaled event in the timeline.
type TraceEvent struct {
	Seq       int64            `json:"seq"`
	Kind      string           `json:"kind"`
	ID        string           `json:"id"`
	Payload   json.RawMessage  `json:"payload"`
	Mutations []store.Mutation `json:"mutations"`
}

// TraceStats holds summary counts for a session.
type TraceStats struct {
	Events      int `json:"events"`
	Mutations   int `json:"mutations"`
	Registers   int `json:"registers"`
	Unregisters int `json:"unregisters"`
	Connects    int `json:"connects"`
	Disconnects int `json:"disconnects"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Session  string       `json:"session"`
	Timeline []TraceEvent `json:"timeline"`
	Stats    TraceStats   `json:"stats"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show a journaled session",
		Long: `Show the journal of one engine session.

Every handled event is listed in seq order together with the step
registrations and connector edits it caused. Without --session the
sessions in the journal are listed instead.

Examples:
  stepfield trace --db ./stepfield.db
  stepfield trace --db ./stepfield.db --session basic_quantization
  stepfield trace --db ./stepfield.db --session basic_quantization --op register
  stepfield trace --db ./stepfield.db --session basic_quantization --element a
  stepfield trace --db ./stepfield.db --session basic_quantization --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session to show")
	cmd.Flags().StringVar(&opts.Op, "op", "", "only show mutations with this op")
	cmd.Flags().StringVar(&opts.Generator, "generator", "", "only show mutations of this generator")
	cmd.Flags().StringVar(&opts.Element, "element", "", "only show mutations of this element")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(opts.Database); err != nil {
		return formatter.fail(ExitCommandError, ErrCodeNotFound,
			fmt.Sprintf("journal not found: %s", opts.Database), nil)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeJournal, "failed to open journal", err)
	}
	defer st.Close()

	if opts.Session == "" {
		sessions, err := st.Sessions(ctx)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeJournal, "failed to list sessions", err)
		}
		if formatter.isJSON() {
			return formatter.Success(sessions)
		}
		writeSessionsText(formatter.Writer, sessions)
		return nil
	}

	entries, err := st.ReadSession(ctx, opts.Session)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeJournal, "failed to read session", err)
	}
	if len(entries) == 0 {
		return formatter.fail(ExitCommandError, ErrCodeSessionNotFound,
			fmt.Sprintf("no events found for session: %s", opts.Session), nil)
	}

	var shown map[string][]store.Mutation
	if opts.filtered() {
		q := store.MutationQuery{
			Session:   opts.Session,
			Generator: opts.Generator,
			Element:   opts.Element,
		}
		if opts.Op != "" {
			q.Ops = []string{opts.Op}
		}
		muts, err := st.QueryMutations(ctx, q)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeJournal, "failed to query mutations", err)
		}
		shown = make(map[string][]store.Mutation)
		for _, m := range muts {
			shown[m.EventID] = append(shown[m.EventID], m)
		}
	}

	result := buildTrace(opts.Session, entries, shown)
	if formatter.isJSON() {
		return formatter.Success(result)
	}
	writeTraceText(formatter.Writer, result, opts.Verbose)
	return nil
}

// buildTrace converts journal entries to a timeline. A non-nil shown map
// replaces each event's mutations in the timeline; stats still count every
// mutation.
func buildTrace(session string, entries []store.Entry, shown map[string][]store.Mutation) TraceResult {
	result := TraceResult{
		Session:  session,
		Timeline: make([]TraceEvent, 0, len(entries)),
	}

	for _, entry := range entries {
		ev := TraceEvent{
			Seq:       entry.Event.Seq,
			Kind:      entry.Event.Kind,
			ID:        entry.Event.ID,
			Payload:   json.RawMessage(entry.Event.Payload),
			Mutations: []store.Mutation{},
		}
		for _, m := range entry.Mutations {
			countMutation(&result.Stats, m)
		}
		if shown == nil {
			ev.Mutations = append(ev.Mutations, entry.Mutations...)
		} else {
			ev.Mutations = append(ev.Mutations, shown[entry.Event.ID]...)
		}
		result.Stats.Events++
		result.Timeline = append(result.Timeline, ev)
	}
	return result
}

func countMutation(s *TraceStats, m store.Mutation) {
	s.Mutations++
	switch engine.Op(m.Op) {
	case engine.OpRegister:
		s.Registers++
	case engine.OpUnregister:
		s.Unregisters++
	case engine.OpConnect:
		s.Connects++
	case engine.OpDisconnect:
		s.Disconnects++
	}
}

func writeSessionsText(w io.Writer, sessions []store.Session) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions found.")
		return
	}
	fmt.Fprintln(w, "=== Sessions ===")
	for _, s := range sessions {
		fmt.Fprintf(w, "  %s  events=%d  seq=%d..%d\n", s.ID, s.Events, s.FirstSeq, s.LastSeq)
	}
}

func writeTraceText(w io.Writer, result TraceResult, verbose bool) {
	fmt.Fprintf(w, "Trace for Session: %s\n", result.Session)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	for _, ev := range result.Timeline {
		fmt.Fprintf(w, "  [%d] %s\n", ev.Seq, ev.Kind)
		if verbose {
			fmt.Fprintf(w, "       ID: %s\n", truncateID(ev.ID))
			fmt.Fprintf(w, "       Payload: %s\n", ev.Payload)
		}
		for _, m := range ev.Mutations {
			fmt.Fprintf(w, "       [%d] %s\n", m.Seq, formatMutation(m))
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Events:      %d\n", result.Stats.Events)
	fmt.Fprintf(w, "  Mutations:   %d\n", result.Stats.Mutations)
	fmt.Fprintf(w, "  Registers:   %d\n", result.Stats.Registers)
	fmt.Fprintf(w, "  Unregisters: %d\n", result.Stats.Unregisters)
	fmt.Fprintf(w, "  Connects:    %d\n", result.Stats.Connects)
	fmt.Fprintf(w, "  Disconnects: %d\n", result.Stats.Disconnects)
}

func formatMutation(m store.Mutation) string {
	switch engine.Op(m.Op) {
	case engine.OpRegister, engine.OpUnregister:
		return fmt.Sprintf("%s %s step=%d on %s", m.Op, m.Element, m.Value, m.Generator)
	case engine.OpConnect, engine.OpDisconnect:
		return fmt.Sprintf("%s %s -> %s (%s)", m.Op, m.Generator, m.Element, m.Connection)
	case engine.OpGeneratorAdd, engine.OpSubdivision:
		return fmt.Sprintf("%s %s value=%d", m.Op, m.Generator, m.Value)
	case engine.OpNumSteps:
		return fmt.Sprintf("%s value=%d", m.Op, m.Value)
	default:
		return fmt.Sprintf("%s %s", m.Op, m.Generator)
	}
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
