// Package log provides structured logging for the scheduler and its qdisc
// tree.
//
// Two logger variants are available:
//   - Logger: non-sugared zap.Logger for the scheduling hot path (structured
//     fields, no formatting overhead)
//   - SugaredLogger: printf-style logging for CLI/demo surfaces
//
// Use Logger.Sugar() to obtain a SugaredLogger when needed.
package log

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Context bundles the identifying fields baked into every record emitted by
// a scheduler instance's logger, the way the teacher's logger bakes
// run_id/attempt/job_id into every record at construction time.
type Context struct {
	SchedulerID string
	PoolSize    int
}

// Logger wraps a non-sugared *zap.Logger with scheduler identity baked in.
type Logger struct {
	zap *zap.Logger
}

// SugaredLogger wraps zap.SugaredLogger for printf-style call sites.
type SugaredLogger struct {
	sugar *zap.SugaredLogger
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:     "timestamp",
		LevelKey:    "level",
		MessageKey:  "message",
		EncodeTime:  zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: zapcore.LowercaseLevelEncoder,
	}
}

// NewLogger creates a logger carrying scheduler_id/pool_size context,
// writing JSON records to os.Stderr.
func NewLogger(ctx Context) *Logger {
	return newLoggerWithWriter(ctx, os.Stderr)
}

// WithOutput returns a new logger with a different output writer, keeping
// the same context fields.
func (l *Logger) WithOutput(w io.Writer) *Logger {
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.AddSync(w), zapcore.DebugLevel)
	return &Logger{zap: l.zap.WithOptions(zap.WrapCore(func(zapcore.Core) zapcore.Core { return core }))}
}

func newLoggerWithWriter(ctx Context, w io.Writer) *Logger {
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.AddSync(w), zapcore.DebugLevel)
	fields := []zap.Field{
		zap.String("scheduler_id", ctx.SchedulerID),
		zap.Int("pool_size", ctx.PoolSize),
	}
	return &Logger{zap: zap.New(core).With(fields...)}
}

// WithQdisc scopes a logger to records about a single qdisc node.
func (l *Logger) WithQdisc(handle uint64) *Logger {
	return &Logger{zap: l.zap.With(zap.Uint64("qdisc_handle", handle))}
}

// WithWorker scopes a logger to records about a single worker.
func (l *Logger) WithWorker(workerID int) *Logger {
	return &Logger{zap: l.zap.With(zap.Int("worker_id", workerID))}
}

// Debug records low-level detail; the scheduler logs worker exit at this
// level.
func (l *Logger) Debug(message string, fields map[string]any) {
	l.zap.Debug(message, zap.Any("fields", fields))
}

// Info records scheduler start/stop.
func (l *Logger) Info(message string, fields map[string]any) {
	l.zap.Info(message, zap.Any("fields", fields))
}

// Warn records recoverable anomalies; the scheduler logs faulted workloads
// at this level.
func (l *Logger) Warn(message string, fields map[string]any) {
	l.zap.Warn(message, zap.Any("fields", fields))
}

// Error records unrecoverable failures; no package in this repository logs
// at this level.
func (l *Logger) Error(message string, fields map[string]any) {
	l.zap.Error(message, zap.Any("fields", fields))
}

// Sugar returns a SugaredLogger for printf-style call sites (CLI/demo).
func (l *Logger) Sugar() *SugaredLogger {
	return &SugaredLogger{sugar: l.zap.Sugar()}
}

func (s *SugaredLogger) Debugf(template string, args ...any) { s.sugar.Debugf(template, args...) }
func (s *SugaredLogger) Infof(template string, args ...any)  { s.sugar.Infof(template, args...) }
func (s *SugaredLogger) Warnf(template string, args ...any)  { s.sugar.Warnf(template, args...) }
func (s *SugaredLogger) Errorf(template string, args ...any) { s.sugar.Errorf(template, args...) }

// With returns a SugaredLogger with additional context fields.
func (s *SugaredLogger) With(args ...any) *SugaredLogger {
	return &SugaredLogger{sugar: s.sugar.With(args...)}
}
