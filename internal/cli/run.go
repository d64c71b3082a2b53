package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/stepfield/internal/config"
	"github.com/roach88/stepfield/internal/harness"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Config   string
	Session  string
}

// StepView is one occupied step in run output.
type StepView struct {
	Step     int      `json:"step"`
	Elements []string `json:"elements"`
}

// GeneratorView is a generator's final step map in run output.
type GeneratorView struct {
	ID    string     `json:"id"`
	Steps []StepView `json:"steps"`
}

// RunResult is the output of the run command.
type RunResult struct {
	Scenario    string          `json:"scenario"`
	Session     string          `json:"session"`
	Pass        bool            `json:"pass"`
	Events      int             `json:"events"`
	Generators  []GeneratorView `json:"generators"`
	Connections int             `json:"connections"`
	Errors      []string        `json:"errors,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Replay a scenario through the engine",
		Long: `Replay a scenario file through the engine and print the resulting
step maps.

Each event is applied to an in-memory canvas and delivered to the engine.
With --db the session is journaled to a SQLite file; running the same
scenario again appends to its session.

Example:
  stepfield run ./scenarios/basic.yaml
  stepfield run ./scenarios/basic.yaml --db ./stepfield.db --config ./stepfield.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (default: in-memory)")
	cmd.Flags().StringVar(&opts.Config, "config", "", "path to CUE config file")
	cmd.Flags().StringVar(&opts.Session, "session", "", "journal session id (default: scenario name)")

	return cmd
}

func runScenarioFile(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return formatter.fail(ExitCommandError, ErrCodeNotFound, "config file not found", err)
		}
		return formatter.fail(ExitCommandError, ErrCodeConfigInvalid, "invalid config", err)
	}

	if _, err := os.Stat(path); err != nil {
		return formatter.fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("scenario not found: %s", path), nil)
	}
	s, err := harness.LoadScenario(path)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeScenarioInvalid, "invalid scenario", err)
	}

	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr(), cfg.Level())
	logger.Debug("running scenario", "scenario", s.Name, "events", len(s.Events), "db", opts.Database)

	result, err := harness.RunWith(cmd.Context(), s, harness.RunOptions{
		JournalPath: opts.Database,
		Config:      &cfg,
		Logger:      logger,
		Session:     opts.Session,
	})
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeJournal, "run failed", err)
	}

	out := buildRunResult(s, result)
	if !out.Pass {
		msg := fmt.Sprintf("scenario %s failed with %d error(s)", s.Name, len(out.Errors))
		if formatter.isJSON() {
			if err := formatter.Failure(out, ErrCodeScenarioFailed, msg); err != nil {
				return err
			}
		} else {
			writeRunText(formatter.Writer, out)
		}
		return NewExitError(ExitFailure, msg)
	}

	if formatter.isJSON() {
		return formatter.Success(out)
	}
	writeRunText(formatter.Writer, out)
	return nil
}

func buildRunResult(s *harness.Scenario, r *harness.Result) RunResult {
	out := RunResult{
		Scenario:    s.Name,
		Session:     r.Session,
		Pass:        r.Pass,
		Events:      len(r.Trace),
		Generators:  []GeneratorView{},
		Connections: len(r.Connections),
		Errors:      r.Errors,
	}

	ids := make([]string, 0, len(r.Generators))
	for id := range r.Generators {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		view := GeneratorView{ID: id, Steps: []StepView{}}
		steps := r.Generators[id]
		for _, step := range sortedSteps(steps) {
			view.Steps = append(view.Steps, StepView{Step: step, Elements: steps[step]})
		}
		out.Generators = append(out.Generators, view)
	}
	return out
}

func sortedSteps(m map[int][]string) []int {
	steps := make([]int, 0, len(m))
	for s, els := range m {
		if len(els) > 0 {
			steps = append(steps, s)
		}
	}
	slices.Sort(steps)
	return steps
}

func writeRunText(w io.Writer, r RunResult) {
	fmt.Fprintf(w, "Scenario: %s (session %s, %d events)\n", r.Scenario, r.Session, r.Events)
	fmt.Fprintln(w)

	if len(r.Generators) == 0 {
		fmt.Fprintln(w, "  (no generators)")
	}
	for _, g := range r.Generators {
		fmt.Fprintf(w, "%s\n", g.ID)
		if len(g.Steps) == 0 {
			fmt.Fprintln(w, "  (empty)")
			continue
		}
		for _, s := range g.Steps {
			fmt.Fprintf(w, "  step %2d: %s\n", s.Step, strings.Join(s.Elements, ", "))
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Connections: %d\n", r.Connections)

	if r.Pass {
		fmt.Fprintln(w, "✓ All assertions passed")
		return
	}
	fmt.Fprintln(w, "✗ Scenario failed")
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}
