package logger

import (
	"errors"

	"go.uber.org/zap/zapcore"
)

type Option func(*ZapLogger)

// MaxSize overrides the rotated file size in megabytes.
func MaxSize(size int) Option {
	return func(l *ZapLogger) {
		l.maxSize = size
	}
}

func MaxBackups(backups int) Option {
	return func(l *ZapLogger) {
		l.maxBackups = backups
	}
}

func MaxAge(days int) Option {
	return func(l *ZapLogger) {
		l.maxAge = days
	}
}

func SetLevel(level zapcore.Level) Option {
	return func(l *ZapLogger) {
		l.level = level
	}
}

// Output replaces stdout as the console sink.
func Output(w zapcore.WriteSyncer) Option {
	return func(l *ZapLogger) {
		l.output = w
	}
}

func (l *ZapLogger) validate() error {
	var errs []error
	if l.maxSize <= 0 {
		errs = append(errs, errors.New("maxSize must be > 0"))
	}
	if l.maxBackups <= 0 {
		errs = append(errs, errors.New("maxBackups must be > 0"))
	}
	if l.maxAge <= 0 {
		errs = append(errs, errors.New("maxAge must be > 0"))
	}
	if l.output == nil {
		errs = append(errs, errors.New("output must not be nil"))
	}
	return errors.Join(errs...)
}
