package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock handler to inspect log records
type mockHandler struct {
	mu      sync.Mutex
	records []slog.Record
	attrs   []slog.Attr
	group   string
	enabled bool
}

func (h *mockHandler) Enabled(context.Context, slog.Level) bool {
	return h.enabled
}

func (h *mockHandler) Handle(_ context.Context, record slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, record)
	return nil
}

func (h *mockHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &mockHandler{enabled: h.enabled, attrs: append(append([]slog.Attr{}, h.attrs...), attrs...), group: h.group}
}

func (h *mockHandler) WithGroup(name string) slog.Handler {
	return &mockHandler{enabled: h.enabled, attrs: h.attrs, group: name}
}

func (h *mockHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

func TestMultiHandler(t *testing.T) {
	h1 := &mockHandler{enabled: true}
	h2 := &mockHandler{enabled: false}
	multi := &multiHandler{handlers: []slog.Handler{h1, h2}}

	assert.True(t, multi.Enabled(context.Background(), slog.LevelInfo))

	record := slog.NewRecord(time.Now(), slog.LevelInfo, "benchmark finished", 0)
	require.NoError(t, multi.Handle(context.Background(), record))
	assert.Equal(t, 1, h1.count())
	assert.Equal(t, 0, h2.count(), "disabled handler must not receive records")

	withAttrs := multi.WithAttrs([]slog.Attr{slog.String("source", "fast")}).(*multiHandler)
	for _, h := range withAttrs.handlers {
		assert.Equal(t, "fast", h.(*mockHandler).attrs[0].Value.String())
	}

	withGroup := multi.WithGroup("stress").(*multiHandler)
	for _, h := range withGroup.handlers {
		assert.Equal(t, "stress", h.(*mockHandler).group)
	}

	h1.enabled = false
	assert.False(t, multi.Enabled(context.Background(), slog.LevelInfo))
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger, closer := NewLogger(false, "", &buf)
	defer closer.Close()

	logger.Debug("hidden")
	logger.Info("shown", "calls", 10)
	assert.NotContains(t, buf.String(), "hidden")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, 10.0, entry["calls"])

	buf.Reset()
	debugLogger, _ := NewLogger(true, "", &buf)
	debugLogger.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestNewLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vdsobench.log")
	var buf bytes.Buffer
	logger, closer := NewLogger(false, path, &buf)

	logger.Info("file message")
	require.NoError(t, closer.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "file message")
	assert.Contains(t, buf.String(), "file message")
}

func TestNewLoggerNoHandlers(t *testing.T) {
	logger, closer := NewLogger(false, "", nil)
	require.NotNil(t, logger)
	logger.Info("discarded")
	assert.NoError(t, closer.Close())
}

func TestNewLoggerFileError(t *testing.T) {
	originalLogger := slog.Default()
	defer slog.SetDefault(originalLogger)

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))

	invalidPath := filepath.Join(t.TempDir(), "nonexistent", "test.log")
	logger, _ := NewLogger(false, invalidPath, nil)
	assert.NotNil(t, logger)
	assert.True(t, strings.Contains(buf.String(), "Failed to open log file"), buf.String())
}

func TestInitLogger(t *testing.T) {
	originalLogger := slog.Default()
	defer slog.SetDefault(originalLogger)

	closer := InitLogger(true, "")
	defer closer.Close()
	assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))
}
