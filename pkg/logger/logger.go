package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// LogLevel represents the logging level
type LogLevel int32

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "INFO"
	}
}

// ParseLogLevel parses a string into a LogLevel
func ParseLogLevel(level string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return DebugLevel
	case "INFO":
		return InfoLevel
	case "WARN", "WARNING":
		return WarnLevel
	case "ERROR":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Logger writes leveled, timestamped lines. Loggers derived with Named share
// the level of their parent.
type Logger struct {
	out       *log.Logger
	errOut    *log.Logger
	level     *atomic.Int32
	component string
}

var defaultLogger *Logger

func init() {
	logLevelStr := os.Getenv("LOG_LEVEL")
	if logLevelStr == "" {
		logLevelStr = "INFO"
	}
	defaultLogger = NewLoggerWithLevel(ParseLogLevel(logLevelStr))
	defaultLogger.Debug("Logger initialized with level: %s", defaultLogger.Level().String())
}

// NewLogger creates a new logger instance with INFO level
func NewLogger() *Logger {
	return NewLoggerWithLevel(InfoLevel)
}

// NewLoggerWithLevel creates a new logger instance with specified level
func NewLoggerWithLevel(level LogLevel) *Logger {
	return NewLoggerWithWriters(os.Stdout, os.Stderr, level)
}

// NewLoggerWithWriters is NewLoggerWithLevel with explicit destinations. ERROR
// lines go to errW, everything else to w.
func NewLoggerWithWriters(w, errW io.Writer, level LogLevel) *Logger {
	lvl := &atomic.Int32{}
	lvl.Store(int32(level))
	return &Logger{
		out:    log.New(w, "", 0),
		errOut: log.New(errW, "", 0),
		level:  lvl,
	}
}

// Named returns a logger that tags each line with the component name.
func (l *Logger) Named(component string) *Logger {
	child := *l
	if l.component != "" {
		component = l.component + "." + component
	}
	child.component = component
	return &child
}

func (l *Logger) Level() LogLevel {
	return LogLevel(l.level.Load())
}

func (l *Logger) SetLevel(level LogLevel) {
	l.level.Store(int32(level))
}

func (l *Logger) shouldLog(level LogLevel) bool {
	return level >= l.Level()
}

// formatMessage adds UTC timestamp and optional component prefix to the message
func (l *Logger) formatMessage(level LogLevel, message string) string {
	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	if l.component != "" {
		return fmt.Sprintf("[%s] %s: [%s] %s", timestamp, level, l.component, message)
	}
	return fmt.Sprintf("[%s] %s: %s", timestamp, level, message)
}

func (l *Logger) logf(level LogLevel, format string, args ...interface{}) {
	if !l.shouldLog(level) {
		return
	}
	line := l.formatMessage(level, fmt.Sprintf(format, args...))
	if level == ErrorLevel {
		l.errOut.Println(line)
		return
	}
	l.out.Println(line)
}

func (l *Logger) Info(format string, args ...interface{})  { l.logf(InfoLevel, format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.logf(ErrorLevel, format, args...) }
func (l *Logger) Debug(format string, args ...interface{}) { l.logf(DebugLevel, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.logf(WarnLevel, format, args...) }

// Package-level convenience functions using the default logger

// Default returns the process-wide logger.
func Default() *Logger { return defaultLogger }

// Named returns a component logger derived from the default logger.
func Named(component string) *Logger { return defaultLogger.Named(component) }

func Info(format string, args ...interface{})  { defaultLogger.Info(format, args...) }
func Error(format string, args ...interface{}) { defaultLogger.Error(format, args...) }
func Debug(format string, args ...interface{}) { defaultLogger.Debug(format, args...) }
func Warn(format string, args ...interface{})  { defaultLogger.Warn(format, args...) }

// SetLogLevel sets the log level for the default logger and all loggers named from it
func SetLogLevel(level LogLevel) {
	defaultLogger.SetLevel(level)
	defaultLogger.Info("Log level changed to: %s", level.String())
}

// GetLogLevel returns the current log level
func GetLogLevel() LogLevel {
	return defaultLogger.Level()
}

// SetLogLevelFromString sets the log level from a string (convenience function)
func SetLogLevelFromString(level string) {
	SetLogLevel(ParseLogLevel(level))
}
