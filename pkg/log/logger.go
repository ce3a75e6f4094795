package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/rulconform/pkg/errors"
)

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// zerologLogger is the default Logger backend.
type zerologLogger struct {
	zl zerolog.Logger
}

var _ Logger = (*zerologLogger)(nil)

// NewZerologLogger creates a Logger writing JSON lines to w.
func NewZerologLogger(w io.Writer, level Level) Logger {
	zl := zerolog.New(w).Level(toZerologLevel(level)).With().Timestamp().Logger()
	return &zerologLogger{zl: zl}
}

func (l *zerologLogger) Debug(msg string, fields ...any) {
	l.zl.Debug().Fields(fields).Msg(msg)
}

func (l *zerologLogger) Info(msg string, fields ...any) {
	l.zl.Info().Fields(fields).Msg(msg)
}

func (l *zerologLogger) Warn(msg string, fields ...any) {
	l.zl.Warn().Fields(fields).Msg(msg)
}

func (l *zerologLogger) Error(msg string, fields ...any) {
	event := l.zl.Error()
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			event = event.Stack().Err(err)
			fields = fields[1:]
		}
	}
	event.Fields(fields).Msg(msg)
}

func (l *zerologLogger) With(fields ...any) Logger {
	return &zerologLogger{zl: l.zl.With().Fields(fields).Logger()}
}

func (l *zerologLogger) Enabled(_ context.Context, level Level) bool {
	zlLevel := toZerologLevel(level)
	return zlLevel >= l.zl.GetLevel() && zlLevel >= zerolog.GlobalLevel()
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// ParseLevel converts "debug", "info", "warn" or "error" into a Level.
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, errors.NewInvalidConfigError("log-level", "must be one of debug, info, warn, error", level)
	}
}

// ===========================================================================
// global provider
// ===========================================================================

type provider struct {
	mu     sync.RWMutex
	w      io.Writer
	level  Level
	logger Logger
}

var global = &provider{
	w:      os.Stderr,
	level:  LevelInfo,
	logger: NewZerologLogger(os.Stderr, LevelInfo),
}

func (p *provider) GetLogger() Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.logger
}

func (p *provider) GetLoggerWithName(name string) Logger {
	return p.GetLogger().With(ComponentKey, name)
}

func (p *provider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level = level
	p.logger = NewZerologLogger(p.w, level)
}

// Provider returns the process-wide LoggerProvider.
func Provider() LoggerProvider {
	return global
}

// GetLogger returns the process-wide logger.
func GetLogger() Logger {
	return global.GetLogger()
}

// GetLoggerWithName returns the process-wide logger tagged with a component name.
func GetLoggerWithName(name string) Logger {
	return global.GetLoggerWithName(name)
}

// SetLogger replaces the process-wide logger. Tests use it to inject a TestLogger.
func SetLogger(l Logger) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.logger = l
}

// SetupLogger configures the process-wide zerolog logger.
// With pretty set the output is zerolog's human readable console format,
// otherwise JSON lines. Warnings raised through errors.Warn are routed
// into the same logger.
func SetupLogger(loglevel string, w io.Writer, pretty bool) error {
	level, err := ParseLevel(loglevel)
	if err != nil {
		return err
	}
	if w == nil {
		w = os.Stderr
	}
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	zerolog.ErrorStackMarshaler = marshalStack
	zerolog.ErrorStackFieldName = StacktraceAttrKey

	global.mu.Lock()
	global.w = w
	global.level = level
	zl := &zerologLogger{zl: zerolog.New(w).Level(toZerologLevel(level)).With().Timestamp().Logger()}
	global.logger = zl
	global.mu.Unlock()

	errors.SetZerologWarnFunc(func(warning error) {
		event := zl.zl.Warn()
		if obj, ok := warning.(zerolog.LogObjectMarshaler); ok {
			event = event.EmbedObject(obj)
		}
		event.Msg(warning.Error())
	})
	return nil
}

// MustSetupLogger is SetupLogger for main packages.
func MustSetupLogger(loglevel string) {
	if err := SetupLogger(loglevel, os.Stderr, false); err != nil {
		panic(fmt.Sprintf("invalid log level :%s", loglevel))
	}
}
