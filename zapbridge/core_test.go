package zapbridge

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/orchardws/owslog/config"
	"github.com/orchardws/owslog/core"
	"github.com/orchardws/owslog/schema"
)

// recordSink captures payloads instead of delivering them.
type recordSink struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (s *recordSink) Name() string { return "record" }

func (s *recordSink) Send(_ context.Context, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, append([]byte(nil), payload...))
	return nil
}

func (s *recordSink) Close() error { return nil }

func (s *recordSink) decoded(t *testing.T) []map[string]any {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, 0, len(s.payloads))
	for _, raw := range s.payloads {
		var payload map[string]any
		require.NoError(t, json.Unmarshal(raw, &payload))
		out = append(out, payload)
	}
	return out
}

func newTestBase(t *testing.T, level string) (*core.BaseLogger, *recordSink) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Endpoint = "https://logs.example.com/ingest"
	cfg.Environment = "qa"
	cfg.LoggerName = "test_logger"
	cfg.ServiceName = "test_service"
	cfg.ServiceVersion = "1.0.0"
	cfg.Level = level
	cfg.Delivery.Mode = "sync"

	sink := &recordSink{}
	base, err := core.Setup(cfg, core.WithSink(sink), core.WithDiagnostics(zap.NewNop()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = base.Close() })
	return base, sink
}

func TestLoggerForwardsEntries(t *testing.T) {
	base, sink := newTestBase(t, "DEBUG")
	logger := NewLogger(base)

	logger.Info("order placed", zap.String("order_id", "o-42"), zap.Int("items", 3))
	require.NoError(t, logger.Sync())

	payloads := sink.decoded(t)
	require.Len(t, payloads, 1)
	assert.Equal(t, "INFO", payloads[0]["level"])
	assert.Equal(t, "order placed", payloads[0]["message"])
	assert.Equal(t, "o-42", payloads[0]["order_id"])
	assert.Equal(t, float64(3), payloads[0]["items"])
	assert.Equal(t, "test_service", payloads[0]["service_name"])
}

func TestLoggerWithFieldsBecomeBindings(t *testing.T) {
	base, sink := newTestBase(t, "DEBUG")
	logger := NewLogger(base).With(zap.String("correlation_id", "abc"))

	logger.Warn("slow query")
	logger.Error("query failed", zap.String("correlation_id", "override"))

	payloads := sink.decoded(t)
	require.Len(t, payloads, 2)
	assert.Equal(t, "abc", payloads[0]["correlation_id"])
	assert.Equal(t, "WARNING", payloads[0]["level"])
	assert.Equal(t, "override", payloads[1]["correlation_id"])
}

func TestLoggerHonorsMinimumLevel(t *testing.T) {
	base, sink := newTestBase(t, "WARNING")
	logger := NewLogger(base)

	logger.Debug("drop")
	logger.Info("drop")
	logger.Warn("keep")

	payloads := sink.decoded(t)
	require.Len(t, payloads, 1)
	assert.Equal(t, "WARNING", payloads[0]["level"])
}

func TestMapLevel(t *testing.T) {
	tests := []struct {
		zap      zapcore.Level
		expected schema.Level
	}{
		{zapcore.DebugLevel, schema.LevelDebug},
		{zapcore.InfoLevel, schema.LevelInfo},
		{zapcore.WarnLevel, schema.LevelWarning},
		{zapcore.ErrorLevel, schema.LevelError},
		{zapcore.DPanicLevel, schema.LevelCritical},
		{zapcore.PanicLevel, schema.LevelCritical},
		{zapcore.FatalLevel, schema.LevelCritical},
	}
	for _, tt := range tests {
		if got := MapLevel(tt.zap); got != tt.expected {
			t.Errorf("MapLevel(%v) = %v, want %v", tt.zap, got, tt.expected)
		}
	}
}

func TestCoreEnabled(t *testing.T) {
	base, _ := newTestBase(t, "ERROR")
	bridgeCore := NewCore(base)

	assert.False(t, bridgeCore.Enabled(zapcore.InfoLevel))
	assert.False(t, bridgeCore.Enabled(zapcore.WarnLevel))
	assert.True(t, bridgeCore.Enabled(zapcore.ErrorLevel))
	assert.True(t, bridgeCore.Enabled(zapcore.FatalLevel))
}

func TestCoreWithEmptyFieldsReturnsSameCore(t *testing.T) {
	base, _ := newTestBase(t, "INFO")
	bridgeCore := NewCore(base)

	assert.Same(t, bridgeCore, bridgeCore.With(nil))
}
