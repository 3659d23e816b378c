package node

import (
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ergo.services/actor/gen"
)

// gen.Log interface implementation

func createLog(level gen.LogLevel, logger *zap.Logger) *log {
	l := &log{
		logger: logger,
		sugar:  logger.Sugar(),
	}
	l.level.Store(int32(level))
	return l
}

type log struct {
	level  atomic.Int32
	fields []gen.LogField
	logger *zap.Logger
	sugar  *zap.SugaredLogger
}

func (l *log) Level() gen.LogLevel {
	return gen.LogLevel(l.level.Load())
}

func (l *log) SetLevel(level gen.LogLevel) error {
	if level < gen.LogLevelTrace {
		return gen.ErrIncorrect
	}
	if level > gen.LogLevelDisabled {
		return gen.ErrIncorrect
	}
	l.level.Store(int32(level))
	return nil
}

func (l *log) Fields() []gen.LogField {
	f := make([]gen.LogField, len(l.fields))
	copy(f, l.fields)
	return f
}

func (l *log) AddFields(fields ...gen.LogField) {
	zf := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		zf = append(zf, zap.Any(f.Name, f.Value))
	}
	l.fields = append(l.fields, fields...)
	l.logger = l.logger.With(zf...)
	l.sugar = l.logger.Sugar()
}

func (l *log) Trace(format string, args ...any) {
	l.write(gen.LogLevelTrace, format, args)
}

func (l *log) Debug(format string, args ...any) {
	l.write(gen.LogLevelDebug, format, args)
}

func (l *log) Info(format string, args ...any) {
	l.write(gen.LogLevelInfo, format, args)
}

func (l *log) Warning(format string, args ...any) {
	l.write(gen.LogLevelWarning, format, args)
}

func (l *log) Error(format string, args ...any) {
	l.write(gen.LogLevelError, format, args)
}

func (l *log) Panic(format string, args ...any) {
	l.write(gen.LogLevelPanic, format, args)
}

// child makes a logger for the process. It shares the zap core with the
// node logger and inherits the node level unless the level is given.
func (l *log) child(level gen.LogLevel, fields ...zap.Field) *log {
	if level == gen.LogLevelDefault {
		level = l.Level()
	}
	c := createLog(level, l.logger.With(fields...))
	c.fields = l.Fields()
	return c
}

func (l *log) write(level gen.LogLevel, format string, args []any) {
	if l.Level() > level {
		return
	}

	switch level {
	case gen.LogLevelTrace:
		l.sugar.With(zap.Bool("trace", true)).Debugf(format, args...)
	case gen.LogLevelDebug:
		l.sugar.Debugf(format, args...)
	case gen.LogLevelInfo:
		l.sugar.Infof(format, args...)
	case gen.LogLevelWarning:
		l.sugar.Warnf(format, args...)
	case gen.LogLevelError:
		l.sugar.Errorf(format, args...)
	case gen.LogLevelPanic:
		// never panics, the recovered panic is reported with the stack
		l.sugar.With(zap.Stack("stack")).Errorf(format, args...)
	}
}

// zapLevel maps the node log level onto the zap level of the default logger.
func zapLevel(level gen.LogLevel) zapcore.Level {
	switch level {
	case gen.LogLevelTrace, gen.LogLevelDebug:
		return zapcore.DebugLevel
	case gen.LogLevelInfo, gen.LogLevelDefault:
		return zapcore.InfoLevel
	case gen.LogLevelWarning:
		return zapcore.WarnLevel
	case gen.LogLevelError, gen.LogLevelPanic:
		return zapcore.ErrorLevel
	}
	// disabled
	return zapcore.FatalLevel
}
