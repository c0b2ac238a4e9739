package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel defines the severity of the log
type LogLevel int

const (
	LogLevelSilent LogLevel = iota
	LogLevelError
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// LogFormat defines the output format of the log
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// Logger is the interface for logging SQL and internal messages
type Logger interface {
	SetLevel(level LogLevel)
	SetFormat(format LogFormat)
	SetOutput(w io.Writer)
	// SetLevelOutput sends entries of exactly one level to an extra writer.
	SetLevelOutput(level LogLevel, w io.Writer)
	WithFields(fields map[string]any) Logger
	// Enabled reports whether entries at level would be written anywhere.
	Enabled(level LogLevel) bool
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	// Statement logs a statement before it runs. It is written whatever the
	// level, so dev mode output survives a quiet logger.
	Statement(sql string, args ...any)
	// SQL logs a statement after it ran.
	SQL(sql string, duration time.Duration, args ...any)
	Sync() error
}

// ParseLevel maps a configuration string onto a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "silent", "off":
		return LogLevelSilent, nil
	case "error":
		return LogLevelError, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "", "info":
		return LogLevelInfo, nil
	case "debug":
		return LogLevelDebug, nil
	}
	return LogLevelInfo, errors.Newf("unknown log level %q", s)
}

func (l LogLevel) zap() zapcore.Level {
	switch l {
	case LogLevelError:
		return zapcore.ErrorLevel
	case LogLevelWarn:
		return zapcore.WarnLevel
	case LogLevelInfo:
		return zapcore.InfoLevel
	case LogLevelDebug:
		return zapcore.DebugLevel
	}
	return zapcore.FatalLevel + 1
}

// zapLogger is the default implementation of Logger. Set* calls are meant
// for setup; logging itself is safe for concurrent use.
type zapLogger struct {
	mu       sync.Mutex
	level    zap.AtomicLevel
	format   LogFormat
	out      zapcore.WriteSyncer
	levelOut map[LogLevel]zapcore.WriteSyncer
	fields   []zap.Field

	z    atomic.Pointer[zap.Logger]
	stmt atomic.Pointer[zap.Logger]
}

// New creates a logger writing to w. A nil writer discards output.
func New(w io.Writer, level LogLevel, format LogFormat) Logger {
	l := &zapLogger{
		level:    zap.NewAtomicLevelAt(level.zap()),
		format:   format,
		levelOut: make(map[LogLevel]zapcore.WriteSyncer),
	}
	if w != nil {
		l.out = zapcore.AddSync(w)
	}
	l.rebuild()
	return l
}

// NewStdLogger creates a new standard logger
func NewStdLogger() Logger {
	return New(os.Stdout, LogLevelInfo, LogFormatText)
}

// NewNop returns a logger that drops everything.
func NewNop() Logger {
	return New(nil, LogLevelSilent, LogFormatText)
}

func (l *zapLogger) encoder() zapcore.Encoder {
	cfg := zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "logger",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeTime:       zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05"),
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeName:       zapcore.FullNameEncoder,
		ConsoleSeparator: " ",
	}
	if l.format == LogFormatJSON {
		cfg.EncodeTime = zapcore.RFC3339TimeEncoder
		return zapcore.NewJSONEncoder(cfg)
	}
	return zapcore.NewConsoleEncoder(cfg)
}

func (l *zapLogger) rebuild() {
	enc := l.encoder()
	var cores []zapcore.Core
	if l.out != nil {
		cores = append(cores, zapcore.NewCore(enc, l.out, l.level))
	}
	for lvl, w := range l.levelOut {
		target := lvl.zap()
		enabler := zap.LevelEnablerFunc(func(z zapcore.Level) bool {
			return z == target && l.level.Enabled(z)
		})
		cores = append(cores, zapcore.NewCore(enc.Clone(), w, enabler))
	}
	z := zap.New(zapcore.NewTee(cores...)).Named("simpledb").With(l.fields...)
	l.z.Store(z)

	stmt := zap.NewNop()
	if l.out != nil {
		stmt = zap.New(zapcore.NewCore(enc.Clone(), l.out, zapcore.DebugLevel)).
			Named("simpledb").With(l.fields...)
	}
	l.stmt.Store(stmt.Named("sql"))
}

func (l *zapLogger) SetLevel(level LogLevel) {
	l.level.SetLevel(level.zap())
}

func (l *zapLogger) SetFormat(format LogFormat) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.format = format
	l.rebuild()
}

func (l *zapLogger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = nil
	if w != nil {
		l.out = zapcore.AddSync(w)
	}
	l.rebuild()
}

func (l *zapLogger) SetLevelOutput(level LogLevel, w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if w == nil {
		delete(l.levelOut, level)
	} else {
		l.levelOut[level] = zapcore.AddSync(w)
	}
	l.rebuild()
}

func (l *zapLogger) WithFields(fields map[string]any) Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	child := &zapLogger{
		level:    l.level,
		format:   l.format,
		out:      l.out,
		levelOut: make(map[LogLevel]zapcore.WriteSyncer, len(l.levelOut)),
		fields:   append([]zap.Field(nil), l.fields...),
	}
	for k, v := range l.levelOut {
		child.levelOut[k] = v
	}
	for k, v := range fields {
		child.fields = append(child.fields, zap.Any(k, v))
	}
	child.rebuild()
	return child
}

func (l *zapLogger) Enabled(level LogLevel) bool {
	if level == LogLevelSilent {
		return false
	}
	return l.z.Load().Core().Enabled(level.zap())
}

func (l *zapLogger) logf(level zapcore.Level, format string, args ...any) {
	z := l.z.Load()
	if ce := z.Check(level, sprintf(format, args...)); ce != nil {
		ce.Write()
	}
}

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

func (l *zapLogger) Debug(format string, args ...any) { l.logf(zapcore.DebugLevel, format, args...) }
func (l *zapLogger) Info(format string, args ...any)  { l.logf(zapcore.InfoLevel, format, args...) }
func (l *zapLogger) Warn(format string, args ...any)  { l.logf(zapcore.WarnLevel, format, args...) }
func (l *zapLogger) Error(format string, args ...any) { l.logf(zapcore.ErrorLevel, format, args...) }

func (l *zapLogger) Statement(sql string, args ...any) {
	l.stmt.Load().Info(sql, zap.String("sql", sql), zap.Any("args", args))
}

func (l *zapLogger) SQL(sql string, duration time.Duration, args ...any) {
	l.z.Load().Named("sql").Info(sql,
		zap.String("sql", sql),
		zap.Duration("duration", duration),
		zap.Any("args", args),
	)
}

func (l *zapLogger) Sync() error {
	return l.z.Load().Sync()
}
