// Package config loads engine configuration from CUE files.
//
// The schema is embedded and closed: unknown fields, non-positive sizes, and
// unknown log levels are rejected with the position of the offending value.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/stepfield/internal/engine"
	"github.com/roach88/stepfield/internal/generator"
)

//go:embed schema.cue
var schemaSrc string

// Config holds engine settings.
type Config struct {
	Subdivision int     `json:"subdivision"`
	MaxRange    float64 `json:"max_range"`
	NumSteps    int     `json:"num_steps"`
	LogLevel    string  `json:"log_level"`
}

// Default returns the configuration an empty file produces.
func Default() Config {
	return Config{
		Subdivision: generator.DefaultSubdivision,
		MaxRange:    generator.DefaultMaxRange,
		NumSteps:    engine.DefaultNumSteps,
		LogLevel:    "info",
	}
}

// Load reads and validates a CUE configuration file. An empty path yields
// Default().
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, path)
}

// Parse validates CUE source against the schema. filename is used in error
// positions only.
func Parse(data []byte, filename string) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSrc, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compile schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	user := ctx.CompileBytes(data, cue.Filename(filename))
	if err := user.Err(); err != nil {
		return Config{}, formatCUEError(err)
	}

	merged := def.Unify(user)
	if err := merged.Validate(cue.Concrete(true)); err != nil {
		return Config{}, formatCUEError(err)
	}

	var cfg Config
	if err := merged.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// EngineOptions maps the configuration onto engine options.
func (c Config) EngineOptions() []engine.Option {
	return []engine.Option{
		engine.WithSubdivision(c.Subdivision),
		engine.WithMaxRange(c.MaxRange),
		engine.WithNumSteps(c.NumSteps),
	}
}

// Level returns the slog level for LogLevel. Unknown values map to info.
func (c Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Error is a configuration error with source position.
type Error struct {
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &Error{Message: first.Error(), Pos: positions[0]}
	}
	return &Error{Message: first.Error()}
}
