// Package telemetry carries the ambient observability concerns — logging,
// metrics, and tracing — that every guide is optionally wrapped with via
// InstrumentedGuide, and that driver wires into cmd/tester.
package telemetry

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig configures a Logger.
type LogConfig struct {
	Level     string // "debug", "info", "warn", "error"
	Format    string // "json" or "console"
	AddCaller bool
}

// Logger wraps a *zap.Logger with guide-domain convenience methods. It also
// implements guide.DebugSink, so it can be handed straight to
// guide.WithDebug.
type Logger struct {
	zap *zap.Logger
}

// NewLogger builds a Logger from config.
func NewLogger(cfg LogConfig) (*Logger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = parseLevel(cfg.Level)
	if cfg.Format != "" {
		zapCfg.Encoding = cfg.Format
	}
	zapCfg.DisableCaller = !cfg.AddCaller

	l, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{zap: l}, nil
}

// NewNop returns a Logger that discards everything, for tests and defaults.
func NewNop() *Logger {
	return &Logger{zap: zap.NewNop()}
}

func parseLevel(level string) zap.AtomicLevel {
	switch level {
	case "debug":
		return zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case "warn":
		return zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "error":
		return zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		return zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
}

// Debugf implements guide.DebugSink so a Logger can be passed directly to
// guide.WithDebug; the formatted message becomes the log line's message
// with no further structured fields, matching the sink's plain-text
// contract.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.zap.Sugar().Debugf(format, args...)
}

// TraversalStarted logs the beginning of a MakeChooser/Close traversal.
func (l *Logger) TraversalStarted(guideKind string, traversal int) {
	l.zap.Debug("traversal started",
		zap.String("guide", guideKind),
		zap.Int("traversal", traversal),
	)
}

// TraversalFinished logs a completed traversal.
func (l *Logger) TraversalFinished(guideKind string, traversal, depth int) {
	l.zap.Debug("traversal finished",
		zap.String("guide", guideKind),
		zap.Int("traversal", traversal),
		zap.Int("depth", depth),
	)
}

// Exhausted logs a guide reaching permanent exhaustion.
func (l *Logger) Exhausted(guideKind string, totalNodes int) {
	l.zap.Info("guide exhausted",
		zap.String("guide", guideKind),
		zap.Int("total_nodes", totalNodes),
	)
}

// ViolationRecovered logs a *guide.ViolationError that InstrumentedGuide's
// chooser caught on its way out of a Choose-family call, just before
// re-raising it.
func (l *Logger) ViolationRecovered(guideKind string, err error) {
	l.zap.Warn("recovered violation from generator",
		zap.String("guide", guideKind),
		zap.Error(err),
	)
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.zap.Sync()
}
