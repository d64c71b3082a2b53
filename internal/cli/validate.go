package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/stepfield/internal/config"
)

// ValidationError is one problem found in a config file.
type ValidationError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Config *config.Config    `json:"config,omitempty"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config.cue>",
		Short: "Validate an engine config file",
		Long: `Validate a CUE engine configuration against the schema.

Reports the first schema violation with its line and column. On success
the effective configuration, defaults included, is printed.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(path); err != nil {
		return formatter.fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("config file not found: %s", path), nil)
	}

	formatter.VerboseLog("validating %s", path)
	cfg, err := config.Load(path)
	if err != nil {
		return outputValidationError(formatter, toValidationError(err))
	}

	if formatter.isJSON() {
		return formatter.Success(ValidationResult{Valid: true, Config: &cfg})
	}

	w := formatter.Writer
	fmt.Fprintln(w, "✓ Config valid")
	fmt.Fprintf(w, "  subdivision: %d\n", cfg.Subdivision)
	fmt.Fprintf(w, "  max_range:   %g\n", cfg.MaxRange)
	fmt.Fprintf(w, "  num_steps:   %d\n", cfg.NumSteps)
	fmt.Fprintf(w, "  log_level:   %s\n", cfg.LogLevel)
	return nil
}

func toValidationError(err error) ValidationError {
	var cerr *config.Error
	if errors.As(err, &cerr) {
		ve := ValidationError{Message: cerr.Message, Code: ErrCodeConfigInvalid}
		if cerr.Pos.IsValid() {
			ve.Line = cerr.Pos.Line()
			ve.Column = cerr.Pos.Column()
		}
		return ve
	}
	return ValidationError{Message: err.Error(), Code: ErrCodeGeneric}
}

// outputValidationError reports a failed validation. Schema violations
// are validation failures (exit 1).
func outputValidationError(formatter *OutputFormatter, ve ValidationError) error {
	if formatter.isJSON() {
		if err := formatter.Failure(ValidationResult{Valid: false, Errors: []ValidationError{ve}}, ve.Code, ve.Message); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "validation failed")
	}

	w := formatter.Writer
	fmt.Fprintln(w, "✗ Validation failed")
	fmt.Fprintln(w)
	if ve.Line > 0 {
		fmt.Fprintf(w, "line %d\n", ve.Line)
	}
	fmt.Fprintf(w, "  %s: %s\n", ve.Code, ve.Message)
	return NewExitError(ExitFailure, "validation failed")
}
