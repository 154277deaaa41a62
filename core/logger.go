// Package core wires the OWS1 formatter and transport sink into the public
// logging facade: Setup builds a process-lifetime BaseLogger, and
// WithBindings derives cheap request-scoped Adapters that layer context
// fields onto every record they emit.
package core

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/orchardws/owslog/config"
	"github.com/orchardws/owslog/metrics"
	"github.com/orchardws/owslog/schema"
	"github.com/orchardws/owslog/transport"
)

// BaseLogger is the process-wide configured logger. It owns the frozen
// configuration and the shared transport sink, and is safe for concurrent
// use from any number of goroutines. Log calls never return an error and
// never panic on caller input: per-record failures are absorbed and
// reported through the diagnostic logger.
type BaseLogger struct {
	cfg           config.Config
	minLevel      schema.Level
	formatter     *schema.Formatter
	sink          transport.Sink
	diag          *zap.Logger
	staticExtras  Fields
	timeout       time.Duration
	async         bool
	includeCaller bool

	sem chan struct{}
	wg  sync.WaitGroup
}

// Option customizes Setup beyond the configuration surface.
type Option func(*BaseLogger)

// WithSink replaces the endpoint-derived HTTP sink, e.g. with a console
// sink or a test double.
func WithSink(sink transport.Sink) Option {
	return func(l *BaseLogger) {
		l.sink = sink
	}
}

// WithDiagnostics sets the logger used to report delivery and
// serialization problems. It must not be a logger that ships through this
// pipeline, or a failing endpoint would feed itself.
func WithDiagnostics(diag *zap.Logger) Option {
	return func(l *BaseLogger) {
		l.diag = diag
	}
}

// Setup validates cfg, freezes it, and returns a BaseLogger bound to the
// formatter/merger/sink pipeline. It is the only owslog call that can fail;
// a *config.ConfigError means a required field is missing or the endpoint
// URL is malformed. Call Close on shutdown to drain in-flight deliveries.
func Setup(cfg config.Config, opts ...Option) (*BaseLogger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	maxInFlight := cfg.Delivery.MaxInFlight
	if maxInFlight <= 0 {
		maxInFlight = 1
	}
	l := &BaseLogger{
		cfg:           cfg,
		minLevel:      cfg.MinLevel(),
		diag:          defaultDiagnostics(),
		staticExtras:  copyFields(cfg.ExtraStaticFields),
		timeout:       cfg.Delivery.Timeout,
		async:         cfg.Delivery.Mode != "sync",
		includeCaller: cfg.IncludeCaller,
		sem:           make(chan struct{}, maxInFlight),
	}
	if l.timeout <= 0 {
		l.timeout = 5 * time.Second
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.sink == nil {
		var sink transport.Sink = transport.NewHTTPSink(cfg.Endpoint)
		if cfg.Delivery.RatePerSecond > 0 {
			sink = transport.NewRateLimitedSink(sink, cfg.Delivery.RatePerSecond, cfg.Delivery.RateBurst)
		}
		l.sink = sink
	}

	l.formatter = schema.NewFormatter(
		schema.Static{
			Environment:    cfg.Environment,
			LoggerName:     cfg.LoggerName,
			ServiceName:    cfg.ServiceName,
			ServiceVersion: cfg.ServiceVersion,
		},
		l.onCollision,
		l.onDegrade,
	)
	return l, nil
}

// defaultDiagnostics builds the fallback diagnostic logger: JSON to stderr,
// warnings and up.
func defaultDiagnostics() *zap.Logger {
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	return zap.New(zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), zapcore.WarnLevel))
}

// Config returns a copy of the frozen configuration.
func (l *BaseLogger) Config() config.Config {
	return l.cfg
}

// Log emits one record if level is at or above the configured minimum.
// Below-threshold records are dropped before any formatting or transport
// work happens.
func (l *BaseLogger) Log(level schema.Level, message string, extras Fields) {
	l.emit(level, message, nil, extras)
}

// Debug logs at DEBUG level.
func (l *BaseLogger) Debug(message string, extras ...Fields) {
	l.emit(schema.LevelDebug, message, nil, mergeFields(extras...))
}

// Info logs at INFO level.
func (l *BaseLogger) Info(message string, extras ...Fields) {
	l.emit(schema.LevelInfo, message, nil, mergeFields(extras...))
}

// Notice logs at NOTICE level.
func (l *BaseLogger) Notice(message string, extras ...Fields) {
	l.emit(schema.LevelNotice, message, nil, mergeFields(extras...))
}

// Warning logs at WARNING level.
func (l *BaseLogger) Warning(message string, extras ...Fields) {
	l.emit(schema.LevelWarning, message, nil, mergeFields(extras...))
}

// Error logs at ERROR level.
func (l *BaseLogger) Error(message string, extras ...Fields) {
	l.emit(schema.LevelError, message, nil, mergeFields(extras...))
}

// Critical logs at CRITICAL level.
func (l *BaseLogger) Critical(message string, extras ...Fields) {
	l.emit(schema.LevelCritical, message, nil, mergeFields(extras...))
}

// WithBindings returns a new Adapter carrying an immutable snapshot of
// bindings. The BaseLogger itself is not modified, and adapters derived
// from the same base never observe each other's bindings.
func (l *BaseLogger) WithBindings(bindings Fields) *Adapter {
	return &Adapter{base: l, bindings: copyFields(bindings)}
}

// Close waits for in-flight background deliveries and releases the sink.
func (l *BaseLogger) Close() error {
	l.wg.Wait()
	return l.sink.Close()
}

// emit runs the full pipeline for one record: threshold check, three-layer
// field merge, formatting, dispatch.
func (l *BaseLogger) emit(level schema.Level, message string, bindings, extras Fields) {
	level = level.Clamp()
	if level < l.minLevel {
		metrics.RecordsDroppedTotal.WithLabelValues("below_level").Inc()
		return
	}

	rec := schema.Record{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Extras:  mergeFields(l.staticExtras, bindings, extras),
	}
	if l.includeCaller {
		rec.Caller = callerInfo(3)
	}

	payload := l.formatter.Format(rec)
	metrics.RecordsEmittedTotal.WithLabelValues(level.String()).Inc()
	l.dispatch(payload)
}

// dispatch hands the payload to the sink. In async mode delivery runs on a
// background goroutine as long as the in-flight cap allows; past the cap it
// degrades to a synchronous send still bounded by the delivery timeout.
func (l *BaseLogger) dispatch(payload []byte) {
	if !l.async {
		l.deliver(payload)
		return
	}
	select {
	case l.sem <- struct{}{}:
		l.wg.Add(1)
		go func() {
			defer func() {
				<-l.sem
				l.wg.Done()
			}()
			l.deliver(payload)
		}()
	default:
		l.deliver(payload)
	}
}

// deliver performs one at-most-once delivery attempt. Failures are reported
// once each through the diagnostic logger and then discarded; they never
// reach the log-call site.
func (l *BaseLogger) deliver(payload []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	if err := l.sink.Send(ctx, payload); err != nil {
		l.diag.Error("log delivery failed",
			zap.String("sink", l.sink.Name()),
			zap.Error(err))
	}
}

func (l *BaseLogger) onCollision(key string) {
	metrics.ReservedKeyCollisionsTotal.WithLabelValues(key).Inc()
	l.diag.Warn("extra field collides with reserved payload key, dropped",
		zap.String("key", key))
}

func (l *BaseLogger) onDegrade(serr *schema.SerializationError) {
	metrics.SerializationFallbacksTotal.Inc()
	l.diag.Warn("extra field not JSON-serializable, degraded",
		zap.String("key", serr.Key),
		zap.Error(serr.Err))
}

// callerInfo resolves the emitting code location, skip frames above this
// function.
func callerInfo(skip int) *schema.Caller {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return nil
	}
	caller := &schema.Caller{
		FileName: filepath.Base(file),
		Line:     line,
	}
	if fn := runtime.FuncForPC(pc); fn != nil {
		caller.FunctionName = fn.Name()
	}
	return caller
}

// Adapter layers additional context fields onto a shared BaseLogger. It is
// cheap to create, holds no resources of its own, and is meant to live for
// one unit of work such as a single HTTP request.
type Adapter struct {
	base     *BaseLogger
	bindings Fields
}

// Log emits one record with the adapter's bound fields merged in. Call
// extras take precedence over bindings, which take precedence over static
// configuration fields.
func (a *Adapter) Log(level schema.Level, message string, extras Fields) {
	a.base.emit(level, message, a.bindings, extras)
}

// Debug logs at DEBUG level.
func (a *Adapter) Debug(message string, extras ...Fields) {
	a.base.emit(schema.LevelDebug, message, a.bindings, mergeFields(extras...))
}

// Info logs at INFO level.
func (a *Adapter) Info(message string, extras ...Fields) {
	a.base.emit(schema.LevelInfo, message, a.bindings, mergeFields(extras...))
}

// Notice logs at NOTICE level.
func (a *Adapter) Notice(message string, extras ...Fields) {
	a.base.emit(schema.LevelNotice, message, a.bindings, mergeFields(extras...))
}

// Warning logs at WARNING level.
func (a *Adapter) Warning(message string, extras ...Fields) {
	a.base.emit(schema.LevelWarning, message, a.bindings, mergeFields(extras...))
}

// Error logs at ERROR level.
func (a *Adapter) Error(message string, extras ...Fields) {
	a.base.emit(schema.LevelError, message, a.bindings, mergeFields(extras...))
}

// Critical logs at CRITICAL level.
func (a *Adapter) Critical(message string, extras ...Fields) {
	a.base.emit(schema.LevelCritical, message, a.bindings, mergeFields(extras...))
}

// WithBindings derives a further Adapter whose bindings are the union of
// this adapter's and the given ones, the new ones winning collisions.
// Neither this adapter nor the base is modified.
func (a *Adapter) WithBindings(bindings Fields) *Adapter {
	return &Adapter{base: a.base, bindings: mergeFields(a.bindings, bindings)}
}

// Bindings returns a copy of the adapter's bound fields.
func (a *Adapter) Bindings() Fields {
	return copyFields(a.bindings)
}
