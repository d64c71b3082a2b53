package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_EmptyFileUsesDefaults(t *testing.T) {
	cfg, err := Parse(nil, "empty.cue")
	require.NoError(t, err)
	assert.Equal(t, Config{Subdivision: 16, MaxRange: 600, NumSteps: 16, LogLevel: "info"}, cfg)
}

func TestLoad_Custom(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "custom.cue"))
	require.NoError(t, err)

	assert.Equal(t, Config{Subdivision: 8, MaxRange: 450, NumSteps: 32, LogLevel: "debug"}, cfg)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Len(t, cfg.EngineOptions(), 3)
}

func TestLoad_Rejects(t *testing.T) {
	for _, name := range []string{"invalid.cue", "unknown_field.cue"} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(filepath.Join("testdata", name))
			require.Error(t, err)

			var cerr *Error
			assert.ErrorAs(t, err, &cerr)
		})
	}
}

func TestParse_BadLogLevel(t *testing.T) {
	_, err := Parse([]byte(`log_level: "trace"`), "level.cue")
	assert.Error(t, err)
}

func TestParse_SyntaxError(t *testing.T) {
	_, err := Parse([]byte(`subdivision: [`), "broken.cue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.cue")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.cue"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, Config{LogLevel: in}.Level(), in)
	}
}
