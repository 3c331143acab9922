// Package telemetry provides the logging and metrics seams the core
// pipeline depends on as interfaces, the way the pack's io_uring
// backend keeps its hot path free of a concrete logging dependency.
// The production implementations are zap-backed and
// prometheus-backed, matching the libraries the pack's own
// tick-ingestion pipeline reference wires up for an architecturally
// identical reader/parser/batcher/writer pipeline.
package telemetry

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured, leveled logging seam every core component
// depends on. Parse failures log at Warnw; stream and Sink failures
// log at Errorw ("severe" in spec.md §7 terms); lifecycle transitions
// log at Infow.
type Logger interface {
	Debugw(msg string, kv ...interface{})
	Infow(msg string, kv ...interface{})
	Warnw(msg string, kv ...interface{})
	Errorw(msg string, kv ...interface{})
}

// zapLogger adapts a *zap.SugaredLogger to the Logger interface.
type zapLogger struct {
	s *zap.SugaredLogger
}

// NewZapLogger builds the production Logger, logging JSON lines to
// stderr at the given minimum level ("debug", "info", "warn", "error").
func NewZapLogger(level string) (Logger, error) {
	lvl := zapcore.InfoLevel
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.Lock(zapcore.AddSync(os.Stderr)), lvl)
	l := zap.New(core)
	return &zapLogger{s: l.Sugar()}, nil
}

func (z *zapLogger) Debugw(msg string, kv ...interface{}) { z.s.Debugw(msg, kv...) }
func (z *zapLogger) Infow(msg string, kv ...interface{})  { z.s.Infow(msg, kv...) }
func (z *zapLogger) Warnw(msg string, kv ...interface{})  { z.s.Warnw(msg, kv...) }
func (z *zapLogger) Errorw(msg string, kv ...interface{}) { z.s.Errorw(msg, kv...) }

// Nop is a Logger that discards everything; useful in tests that
// don't care about log output.
func Nop() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) Debugw(string, ...interface{}) {}
func (nopLogger) Infow(string, ...interface{})  {}
func (nopLogger) Warnw(string, ...interface{})  {}
func (nopLogger) Errorw(string, ...interface{}) {}
