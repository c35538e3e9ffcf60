package logger

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// MaxLogLines is how many lines the log file keeps before old lines are dropped.
const MaxLogLines = 5000

// LogLevel orders log severities; messages below the logger's level are dropped.
type LogLevel int

const (
	LogLevelTrace LogLevel = iota
	LogLevelDebug
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

var levelNames = map[LogLevel]string{
	LogLevelTrace: "TRACE",
	LogLevelDebug: "DEBUG",
	LogLevelInfo:  "INFO",
	LogLevelWarn:  "WARN",
	LogLevelError: "ERROR",
}

func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseLogLevel maps a config string to a level, defaulting to info.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LogLevelTrace
	case "DEBUG":
		return LogLevelDebug
	case "WARN", "WARNING":
		return LogLevelWarn
	case "ERROR":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// rotatable is the part of *os.File rotation needs. Writers without it are
// never trimmed.
type rotatable interface {
	io.ReadWriteSeeker
	Truncate(size int64) error
}

// LimitedLogger is a leveled logger that keeps its file under MaxLogLines.
type LimitedLogger struct {
	mu        sync.Mutex
	out       io.Writer
	closer    io.Closer
	lineCount int
	level     LogLevel
	now       func() time.Time
}

var (
	globalMu     sync.RWMutex
	globalLogger *LimitedLogger
)

// fallback writes to stderr until a logger is installed.
var fallback = &LimitedLogger{out: os.Stderr, level: LogLevelInfo, now: time.Now}

// Open appends to the log file at path and installs it as the global logger.
// Caller must Close it.
func Open(path string, level LogLevel) (*LimitedLogger, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	ll := NewLimitedLogger(f, level)
	ll.closer = f
	return ll, nil
}

// NewLimitedLogger wraps w and installs it as the global logger.
func NewLimitedLogger(w io.Writer, level LogLevel) *LimitedLogger {
	ll := &LimitedLogger{out: w, level: level, now: time.Now}
	ll.countExistingLines()
	SetGlobal(ll)
	return ll
}

// SetGlobal replaces the logger used by the package-level functions.
// Passing nil restores the stderr fallback.
func SetGlobal(ll *LimitedLogger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = ll
}

func current() *LimitedLogger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalLogger != nil {
		return globalLogger
	}
	return fallback
}

func (ll *LimitedLogger) SetLevel(level LogLevel) {
	ll.mu.Lock()
	defer ll.mu.Unlock()
	ll.level = level
}

func (ll *LimitedLogger) enabled(level LogLevel) bool {
	ll.mu.Lock()
	defer ll.mu.Unlock()
	return level >= ll.level
}

func (ll *LimitedLogger) logf(level LogLevel, format string, v ...any) {
	if !ll.enabled(level) {
		return
	}
	msg := fmt.Sprintf("%s [%s] %s\n", ll.now().Format("2006/01/02 15:04:05"), level, fmt.Sprintf(format, v...))
	ll.Write([]byte(msg))
}

func (ll *LimitedLogger) Trace(format string, v ...any) { ll.logf(LogLevelTrace, format, v...) }
func (ll *LimitedLogger) Debug(format string, v ...any) { ll.logf(LogLevelDebug, format, v...) }
func (ll *LimitedLogger) Info(format string, v ...any)  { ll.logf(LogLevelInfo, format, v...) }
func (ll *LimitedLogger) Warn(format string, v ...any)  { ll.logf(LogLevelWarn, format, v...) }
func (ll *LimitedLogger) Error(format string, v ...any) { ll.logf(LogLevelError, format, v...) }

// Printf logs at debug level. It matches the logf hook of nvim.New.
func (ll *LimitedLogger) Printf(format string, v ...any) { ll.logf(LogLevelDebug, format, v...) }

// Write implements io.Writer so the standard log package can be routed here.
func (ll *LimitedLogger) Write(p []byte) (int, error) {
	ll.mu.Lock()
	defer ll.mu.Unlock()

	n, err := ll.out.Write(p)
	if err != nil {
		return n, err
	}
	ll.lineCount += strings.Count(string(p[:n]), "\n")
	if ll.lineCount > MaxLogLines {
		ll.rotate()
	}
	return n, nil
}

// Close closes the underlying file when the logger owns one.
func (ll *LimitedLogger) Close() error {
	if ll.closer == nil {
		return nil
	}
	return ll.closer.Close()
}

func (ll *LimitedLogger) countExistingLines() {
	ll.mu.Lock()
	defer ll.mu.Unlock()

	f, ok := ll.out.(rotatable)
	if !ok {
		return
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return
	}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		ll.lineCount++
	}
	f.Seek(0, io.SeekEnd)
}

// rotate keeps the newest MaxLogLines lines. Caller holds mu.
func (ll *LimitedLogger) rotate() {
	f, ok := ll.out.(rotatable)
	if !ok {
		ll.lineCount = 0
		return
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return
	}
	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) > MaxLogLines {
		lines = lines[len(lines)-MaxLogLines:]
	}

	f.Truncate(0)
	f.Seek(0, io.SeekStart)
	for _, line := range lines {
		io.WriteString(f, line+"\n")
	}
	ll.lineCount = len(lines)
}

// noop is returned by Trace when trace logging is off.
var noop = func() {}

// Trace returns a func that logs how long the named operation took.
// Usage: defer logger.Trace("generator.Run")()
func Trace(name string) func() {
	ll := current()
	if !ll.enabled(LogLevelTrace) {
		return noop
	}
	start := ll.now()
	return func() {
		ll.Trace("%s: %v", name, ll.now().Sub(start))
	}
}

// Enabled reports whether the global logger writes messages at level.
func Enabled(level LogLevel) bool { return current().enabled(level) }

func Debug(format string, v ...any) { current().Debug(format, v...) }
func Info(format string, v ...any)  { current().Info(format, v...) }
func Warn(format string, v ...any)  { current().Warn(format, v...) }
func Error(format string, v ...any) { current().Error(format, v...) }

// Printf logs at debug level through the global logger.
func Printf(format string, v ...any) { current().Printf(format, v...) }
