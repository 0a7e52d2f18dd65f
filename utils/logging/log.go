// Copyright (C) 2023-2026, Frost Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger defines the interface that is used to emit logs. The consensus hot
// path only calls Verbo, so implementations should make disabled levels cheap.
type Logger interface {
	// Fatal is reserved for errors after which the caller cannot safely
	// continue.
	Fatal(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Debug(msg string, fields ...zap.Field)
	// Verbo is for per-poll consensus traces.
	Verbo(msg string, fields ...zap.Field)

	// Stop flushes any buffered entries and releases the underlying writer.
	Stop()
}

var _ Logger = (*log)(nil)

type log struct {
	internalLogger *zap.Logger
	writer         io.WriteCloser
}

// NewLogger returns a logger that writes human-readable entries at or above
// [level] to [writer], prefixed with [prefix].
func NewLogger(prefix string, level Level, writer io.WriteCloser) Logger {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = levelEncoder
	encoder := zapcore.NewConsoleEncoder(encoderConfig)

	core := zapcore.NewCore(
		encoder,
		zapcore.AddSync(writer),
		zap.NewAtomicLevelAt(zapcore.Level(level)),
	)
	internalLogger := zap.New(core)
	if prefix != "" {
		internalLogger = internalLogger.Named(prefix)
	}
	return &log{
		internalLogger: internalLogger,
		writer:         writer,
	}
}

// NewDefaultLogger returns a logger that writes to stdout.
func NewDefaultLogger(prefix string, level Level) Logger {
	return NewLogger(prefix, level, os.Stdout)
}

func levelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(Level(l).String())
}

func (l *log) log(level Level, msg string, fields ...zap.Field) {
	if ce := l.internalLogger.Check(zapcore.Level(level), msg); ce != nil {
		ce.Write(fields...)
	}
}

func (l *log) Fatal(msg string, fields ...zap.Field) {
	l.log(Fatal, msg, fields...)
}

func (l *log) Error(msg string, fields ...zap.Field) {
	l.log(Error, msg, fields...)
}

func (l *log) Warn(msg string, fields ...zap.Field) {
	l.log(Warn, msg, fields...)
}

func (l *log) Info(msg string, fields ...zap.Field) {
	l.log(Info, msg, fields...)
}

func (l *log) Debug(msg string, fields ...zap.Field) {
	l.log(Debug, msg, fields...)
}

func (l *log) Verbo(msg string, fields ...zap.Field) {
	l.log(Verbo, msg, fields...)
}

func (l *log) Stop() {
	_ = l.internalLogger.Sync()
	_ = l.writer.Close()
}
