// Package logging provides leveled, structured logging for the kernel,
// scheduler, and RPC packages, backed by zerolog.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// LogLevel represents the available log levels.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Config holds logging configuration.
type Config struct {
	Level LogLevel
	// Format is "text" (console-writer, human readable) or "json" (raw
	// zerolog JSON lines). Defaults to "text".
	Format  string
	Output  io.Writer
	NoColor bool
}

// DefaultConfig returns a sensible default configuration: text format at
// info level, writing to stderr.
func DefaultConfig() *Config {
	return &Config{
		Level:  LevelInfo,
		Format: "text",
		Output: os.Stderr,
	}
}

// Logger wraps a zerolog.Logger with the call shape the rest of the kernel
// uses: leveled Debug/Info/Warn/Error with key-value pairs, plus Printf-style
// variants for call sites that build their own formatted message.
type Logger struct {
	zl zerolog.Logger
}

// NewLogger creates a new Logger from config (nil uses DefaultConfig).
func NewLogger(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	output := config.Output
	if output == nil {
		output = os.Stderr
	}

	var w io.Writer = output
	if config.Format != "json" {
		w = zerolog.ConsoleWriter{Out: output, NoColor: config.NoColor, TimeFormat: "15:04:05"}
	}

	zl := zerolog.New(w).With().Timestamp().Logger().Level(config.Level.zerolog())
	return &Logger{zl: zl}
}

var (
	defaultLogger *Logger
	mu            sync.RWMutex
)

// Default returns the default logger, creating it if necessary.
func Default() *Logger {
	mu.RLock()
	if defaultLogger != nil {
		defer mu.RUnlock()
		return defaultLogger
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		defaultLogger = NewLogger(nil)
	}
	return defaultLogger
}

// SetDefault sets the default (package-global) logger.
func SetDefault(logger *Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = logger
}

func withArgs(e *zerolog.Event, args []any) *zerolog.Event {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, args[i+1])
	}
	return e
}

func (l *Logger) Debug(msg string, args ...any) { withArgs(l.zl.Debug(), args).Msg(msg) }
func (l *Logger) Info(msg string, args ...any)  { withArgs(l.zl.Info(), args).Msg(msg) }
func (l *Logger) Warn(msg string, args ...any)  { withArgs(l.zl.Warn(), args).Msg(msg) }
func (l *Logger) Error(msg string, args ...any) { withArgs(l.zl.Error(), args).Msg(msg) }

// Debugf/Infof/Warnf/Errorf are printf-style variants for call sites that
// build their own formatted message (no structured key-value pairs).
func (l *Logger) Debugf(format string, args ...any) { l.zl.Debug().Msgf(format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.zl.Info().Msgf(format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.zl.Warn().Msgf(format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.zl.Error().Msgf(format, args...) }

// Printf is kept for call sites ported from the old stdlib-log wrapper that
// expect an info-level printf.
func (l *Logger) Printf(format string, args ...any) { l.Infof(format, args...) }

// WithSession returns a child logger that tags every entry with the RPC
// session's client id.
func (l *Logger) WithSession(clientID uint64) *Logger {
	return &Logger{zl: l.zl.With().Uint64("client_id", clientID).Logger()}
}

// WithThread returns a child logger tagged with a scheduler thread id.
func (l *Logger) WithThread(tid uint64) *Logger {
	return &Logger{zl: l.zl.With().Uint64("tid", tid).Logger()}
}

// WithRequest returns a child logger tagged with an in-flight request's
// correlation id and RPC type name.
func (l *Logger) WithRequest(reqID uint64, rpcType string) *Logger {
	return &Logger{zl: l.zl.With().Uint64("req_id", reqID).Str("rpc_type", rpcType).Logger()}
}

// WithError returns a child logger that attaches err to every entry.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{zl: l.zl.With().Err(err).Logger()}
}

// Global convenience functions operating on the default logger.
func Debug(msg string, args ...any) { Default().Debug(msg, args...) }
func Info(msg string, args ...any)  { Default().Info(msg, args...) }
func Warn(msg string, args ...any)  { Default().Warn(msg, args...) }
func Error(msg string, args ...any) { Default().Error(msg, args...) }
