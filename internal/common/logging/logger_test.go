package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithField(t *testing.T) {
	logger, observedLogs := testLogger()

	logger.WithField("platform", "DHUS").Info("test message")

	entries := observedLogs.All()
	require.Len(t, entries, 1, "Expected exactly one log entry")
	assert.Equal(t, "test message", entries[0].Message)
	assert.Equal(t, "DHUS", entries[0].ContextMap()["platform"])
}

func TestWithFields(t *testing.T) {
	logger, observedLogs := testLogger()

	logger.WithFields(map[string]any{
		"scenario": "TS01",
		"workers":  int64(4),
	}).Info("test message")

	entries := observedLogs.All()
	require.Len(t, entries, 1, "Expected exactly one log entry")
	assert.Equal(t, "TS01", entries[0].ContextMap()["scenario"])
	assert.Equal(t, int64(4), entries[0].ContextMap()["workers"])
}

func TestWithError(t *testing.T) {
	logger, observedLogs := testLogger()

	logger.WithError(errors.New("test error")).Info("test message")

	entries := observedLogs.All()
	require.Len(t, entries, 1, "Expected exactly one log entry")
	assert.Equal(t, "test error", entries[0].ContextMap()["error"])
}

func TestWithError_Nil(t *testing.T) {
	logger, observedLogs := testLogger()

	logger.WithError(nil).Info("test message")

	entries := observedLogs.All()
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].ContextMap(), "error")
}

func TestWithStacktrace(t *testing.T) {
	logger, observedLogs := testLogger()

	err := errors.WithStack(errors.New("test error"))
	logger.WithStacktrace(err).Info("test message")

	entries := observedLogs.All()
	require.Len(t, entries, 1, "Expected exactly one log entry")
	assert.Equal(t, "test error", entries[0].ContextMap()["error"])
	assert.Equal(t, err.(stackTracer).StackTrace(), entries[0].ContextMap()["stacktrace"])
}

func TestNewLogger_FileOutput(t *testing.T) {
	c := DefaultConfig()
	c.Console.Format = FormatJSON
	c.File.Enabled = true
	c.File.LogFile = filepath.Join(t.TempDir(), "yasube.log")
	c = c.WithDefaults()
	require.NoError(t, c.Validate())

	var console bytes.Buffer
	logger, err := NewLogger(c, &console)
	require.NoError(t, err)

	logger.WithField("case", "TestCase001").Info("hello")
	require.NoError(t, logger.Sync())

	assert.Contains(t, console.String(), `"case":"TestCase001"`)
	contents, err := os.ReadFile(c.File.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "hello")
}

func TestPrometheusHook(t *testing.T) {
	registry := prometheus.NewRegistry()
	hook, err := NewPrometheusHook(registry)
	require.NoError(t, err)

	logger, err := NewLogger(DefaultConfig(), &bytes.Buffer{}, hook.Option())
	require.NoError(t, err)
	logger.Info("one")
	logger.Warn("two")
	logger.Warn("three")

	assert.Equal(t, 1.0, testutil.ToFloat64(hook.counter.WithLabelValues("info")))
	assert.Equal(t, 2.0, testutil.ToFloat64(hook.counter.WithLabelValues("warn")))
}

func TestCallerIsTheLoggingSite(t *testing.T) {
	core, observedLogs := observer.New(zapcore.DebugLevel)
	logger := &Logger{underlying: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()}

	previous := StdLogger()
	ReplaceStdLogger(logger)
	defer ReplaceStdLogger(previous)

	logger.WithField("attempt", 1).Info("method")
	Info("helper")
	WithField("attempt", 2).Warnf("derived %s", "helper")
	func() { logger.Error("closure") }()

	entries := observedLogs.All()
	require.Len(t, entries, 4)
	for _, entry := range entries {
		require.True(t, entry.Caller.Defined, entry.Message)
		assert.Equal(t, "logger_test.go", filepath.Base(entry.Caller.File), entry.Message)
	}
}

func testLogger() (*Logger, *observer.ObservedLogs) {
	core, observedLogs := observer.New(zapcore.DebugLevel)
	return &Logger{underlying: zap.New(core).Sugar()}, observedLogs
}
