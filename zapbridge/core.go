// Package zapbridge lets zap-native applications ship OWS1 records without
// changing their call sites: it implements a zapcore.Core that forwards
// every entry to an owslog BaseLogger, mapping zap levels onto OWS1 levels
// and flattening zap fields into payload extras.
package zapbridge

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/orchardws/owslog/core"
	"github.com/orchardws/owslog/schema"
)

// Core forwards zap entries to an owslog adapter. Fields accumulated via
// With become adapter bindings, so child loggers keep their context without
// sharing state.
type Core struct {
	adapter  *core.Adapter
	minLevel schema.Level
}

var _ zapcore.Core = (*Core)(nil)

// NewCore creates a zapcore.Core emitting through base.
func NewCore(base *core.BaseLogger) *Core {
	cfg := base.Config()
	return &Core{
		adapter:  base.WithBindings(nil),
		minLevel: cfg.MinLevel(),
	}
}

// NewLogger wraps base in a ready-to-use *zap.Logger.
func NewLogger(base *core.BaseLogger) *zap.Logger {
	return zap.New(NewCore(base))
}

// MapLevel converts a zap level to its OWS1 counterpart.
func MapLevel(level zapcore.Level) schema.Level {
	switch {
	case level <= zapcore.DebugLevel:
		return schema.LevelDebug
	case level == zapcore.InfoLevel:
		return schema.LevelInfo
	case level == zapcore.WarnLevel:
		return schema.LevelWarning
	case level == zapcore.ErrorLevel:
		return schema.LevelError
	default: // DPanic, Panic, Fatal
		return schema.LevelCritical
	}
}

// Enabled implements zapcore.LevelEnabler.
func (c *Core) Enabled(level zapcore.Level) bool {
	return MapLevel(level) >= c.minLevel
}

// With returns a child core whose bindings include the given fields.
func (c *Core) With(fields []zapcore.Field) zapcore.Core {
	if len(fields) == 0 {
		return c
	}
	return &Core{
		adapter:  c.adapter.WithBindings(fieldsToExtras(fields)),
		minLevel: c.minLevel,
	}
}

// Check implements zapcore.Core.
func (c *Core) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

// Write forwards one entry through the owslog pipeline. It never returns an
// error; delivery problems are absorbed by the pipeline's own reporting.
func (c *Core) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	c.adapter.Log(MapLevel(entry.Level), entry.Message, fieldsToExtras(fields))
	return nil
}

// Sync implements zapcore.Core. Delivery is fire-and-forget, so there is
// nothing to flush here.
func (c *Core) Sync() error {
	return nil
}

// fieldsToExtras flattens zap fields into a plain map via zap's own map
// encoder.
func fieldsToExtras(fields []zapcore.Field) core.Fields {
	if len(fields) == 0 {
		return nil
	}
	enc := zapcore.NewMapObjectEncoder()
	for _, field := range fields {
		field.AddTo(enc)
	}
	return core.Fields(enc.Fields)
}
