package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pigeonflight/pkg/config"
)

func TestInit(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() {
		slog.SetDefault(prev)
		SetRunLogPath("")
	})

	tempDir := t.TempDir()
	serverLog := filepath.Join(tempDir, "server.log")
	requestLog := filepath.Join(tempDir, "requests.log")
	runLog := filepath.Join(tempDir, "runs.log")

	// previous run's log gets rotated
	require.NoError(t, os.WriteFile(serverLog, []byte("old run\n"), 0o644))

	cfg := &config.LogConfig{
		Server:   config.LogSettings{Path: serverLog, Level: "DEBUG"},
		Requests: config.LogSettings{Path: requestLog, Level: "INFO"},
		Runs:     config.LogSettings{Path: runLog},
	}

	cleanup, err := Init(cfg)
	require.NoError(t, err)
	defer cleanup()

	old, err := os.ReadFile(serverLog + ".old")
	require.NoError(t, err)
	assert.Equal(t, "old run\n", string(old))

	_, err = os.Stat(requestLog)
	assert.NoError(t, err)
	require.NotNil(t, RequestLogger)

	slog.Info("pigeon released", "run_id", "abc")
	assert.Contains(t, GlobalLogCapture.GetLastLine(), "pigeon released")
	assert.False(t, strings.HasSuffix(GlobalLogCapture.GetLastLine(), "\n"))

	// debug reaches the file but not the capture writer
	slog.Debug("debug only")
	assert.NotContains(t, GlobalLogCapture.GetLastLine(), "debug only")
	content, err := os.ReadFile(serverLog)
	require.NoError(t, err)
	assert.Contains(t, string(content), "debug only")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "level %q", tt.in)
	}
}

func TestMultiHandler_WithAttrs(t *testing.T) {
	var a, b bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelWarn}),
	}}
	logger := slog.New(h).With("component", "controller")

	logger.Info("tick")
	logger.Warn("slow consumer")

	assert.Contains(t, a.String(), "component=controller")
	assert.Contains(t, a.String(), "msg=tick")
	assert.NotContains(t, b.String(), "msg=tick")
	assert.Contains(t, b.String(), "msg=\"slow consumer\"")
}

func TestLogRun(t *testing.T) {
	t.Cleanup(func() { SetRunLogPath("") })
	path := filepath.Join(t.TempDir(), "logs", "runs.log")
	SetRunLogPath(path)

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	LogRun(&RunEntry{ID: "r1", Timestamp: ts, Outcome: "found", Ticks: 3500, Arrived: true})
	LogRun(&RunEntry{ID: "r2", Timestamp: ts, Outcome: "fallback", Ticks: 7, Err: errors.New("canceled")})

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "[2024-05-01 12:00:00] r1 route=found ticks=3500 arrived=true dropped=0", lines[0])
	assert.Equal(t, "[2024-05-01 12:00:00] r2 route=fallback ticks=7 arrived=false dropped=0 error=canceled", lines[1])
}

func TestLogRun_Disabled(t *testing.T) {
	SetRunLogPath("")
	LogRun(&RunEntry{ID: "nowhere"})
}

func TestTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	EnableTrace = false
	Trace(logger, "hidden")
	assert.Empty(t, buf.String())

	EnableTrace = true
	t.Cleanup(func() { EnableTrace = false })
	Trace(logger, "shown")
	assert.Contains(t, buf.String(), "shown")
}
