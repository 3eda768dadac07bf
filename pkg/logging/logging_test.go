package logging_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/agentstation/airsync/pkg/logging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := logging.DefaultConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "auto", cfg.Format)
	assert.Equal(t, "stderr", cfg.Output)
	assert.False(t, cfg.AddCaller)
}

func TestNewLoggerFromConfig(t *testing.T) {
	originalLevel := zerolog.GlobalLevel()
	defer zerolog.SetGlobalLevel(originalLevel)

	path := filepath.Join(t.TempDir(), "airsync.log")
	logger := logging.NewLoggerFromConfig(&logging.Config{
		Level:  "warn",
		Format: "json",
		Output: path,
		Fields: map[string]any{"service": "airsync"},
	})

	logger.Info().Msg("hidden")
	logger.Warn().Str("table", "Meetings").Msg("visible")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "hidden")
	assert.Contains(t, string(content), "visible")
	assert.Contains(t, string(content), `"service":"airsync"`)
	assert.Contains(t, string(content), `"table":"Meetings"`)
}

func TestConfigure(t *testing.T) {
	originalLogger := *logging.Default()
	originalLevel := zerolog.GlobalLevel()
	defer func() {
		logging.SetDefault(originalLogger)
		zerolog.SetGlobalLevel(originalLevel)
	}()

	path := filepath.Join(t.TempDir(), "airsync.log")
	logging.Configure(&logging.Config{Level: "error", Format: "json", Output: path})

	logging.Warn().Msg("warn message")
	logging.Error().Msg("error message")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "warn message")
	assert.Contains(t, string(content), "error message")
}

func TestContextHelpers(t *testing.T) {
	tl := logging.NewTestLogger(t)

	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithRunID(ctx, "run-1")
	ctx = logging.WithEntity(ctx, "journal-club")
	ctx = logging.WithTable(ctx, "Papers")
	ctx = logging.WithOperation(ctx, "reconcile")
	ctx = logging.WithError(ctx, errors.New("boom"))
	ctx = logging.WithFields(ctx, map[string]any{"local_id": 42})

	logging.Ctx(ctx).Info().Msg("hello")

	assert.Equal(t, "run-1", logging.RunID(ctx))
	tl.AssertContains(t, `"run_id":"run-1"`)
	tl.AssertContains(t, `"entity":"journal-club"`)
	tl.AssertContains(t, `"table":"Papers"`)
	tl.AssertContains(t, `"operation":"reconcile"`)
	tl.AssertContains(t, `"error":"boom"`)
	tl.AssertContains(t, `"local_id":42`)
	assert.Equal(t, 1, tl.Count())
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	//nolint:staticcheck // nil context is handled explicitly
	assert.Same(t, logging.Default(), logging.FromContext(nil))
	assert.Same(t, logging.Default(), logging.FromContext(context.Background()))
	assert.Equal(t, "", logging.RunID(context.Background()))
	assert.Equal(t, context.Background(), logging.WithError(context.Background(), nil))
}

func TestCaptureLoggingForTest(t *testing.T) {
	var tl *logging.TestLogger
	t.Run("captured", func(t *testing.T) {
		tl = logging.CaptureLoggingForTest(t)
		logging.Info().Msg("captured line")
		tl.AssertContains(t, "captured line")
	})

	logging.Info().Msg("after restore")
	tl.AssertNotContains(t, "after restore")
}
