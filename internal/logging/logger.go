package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sync"
	"time"
)

// Logger defines a minimal, printf-style logging contract.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards all output.
func Nop() Logger {
	return nopLogger{}
}

// OrNop returns logger when non-nil, otherwise a no-op logger.
func OrNop(logger Logger) Logger {
	if logger == nil {
		return Nop()
	}
	return logger
}

// LogLevel represents the severity of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

var (
	rootInstance *fileLogger
	rootOnce     sync.Once
)

// fileLogger writes structured lines to tafahom-debug.log in the user's home
// directory. All component loggers share a single file handle.
type fileLogger struct {
	file      *os.File
	logger    *log.Logger
	level     LogLevel
	mu        *sync.Mutex
	component string
}

func root() *fileLogger {
	rootOnce.Do(func() {
		rootInstance = &fileLogger{level: DEBUG, mu: &sync.Mutex{}}
		home, err := os.UserHomeDir()
		if err != nil {
			return
		}
		logPath := filepath.Join(home, "tafahom-debug.log")
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.Printf("failed to open log file: %v", err)
			return
		}
		rootInstance.file = file
		rootInstance.logger = log.New(file, "", 0) // formatted by hand below
	})
	return rootInstance
}

// NewComponentLogger returns the shared file logger scoped to a component.
func NewComponentLogger(component string) Logger {
	base := root()
	return &fileLogger{
		file:      base.file,
		logger:    base.logger,
		level:     base.level,
		mu:        base.mu,
		component: component,
	}
}

func (l *fileLogger) log(level LogLevel, format string, args ...any) {
	if level < l.level || l.logger == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	_, file, line, ok := runtime.Caller(2)
	if ok {
		file = filepath.Base(file)
	} else {
		file = "???"
		line = 0
	}

	component := l.component
	if component == "" {
		component = "TAFAHOM"
	}

	// Format: 2025-09-30 12:34:56 [INFO] [Component] file.go:123 - Message
	message := fmt.Sprintf(format, args...)
	logLine := fmt.Sprintf("%s [%s] [%s] %s:%d - %s",
		time.Now().Format("2006-01-02 15:04:05"),
		levelToString(level), component, file, line, message)

	l.logger.Print(sanitizeLogLine(logLine))
}

func (l *fileLogger) Debug(format string, args ...any) { l.log(DEBUG, format, args...) }
func (l *fileLogger) Info(format string, args ...any)  { l.log(INFO, format, args...) }
func (l *fileLogger) Warn(format string, args ...any)  { l.log(WARN, format, args...) }
func (l *fileLogger) Error(format string, args ...any) { l.log(ERROR, format, args...) }

func levelToString(level LogLevel) string {
	switch level {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

const redactionPlaceholder = "[REDACTED]"

var (
	bearerTokenPattern = regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9\-\._~+/]+=*)`)
	apiKeyPattern      = regexp.MustCompile(
		`(?i)((?:"|')?(?:api[_-]?key|token|secret|password)(?:"|')?\s*(?:=|:)\s*)(?:"|')?([^"'\s,;]+)((?:"|')?)`,
	)
)

// sanitizeLogLine strips credentials before anything reaches the log file.
func sanitizeLogLine(line string) string {
	sanitized := bearerTokenPattern.ReplaceAllString(line, "${1}"+redactionPlaceholder)
	return apiKeyPattern.ReplaceAllString(sanitized, "${1}"+redactionPlaceholder+"${3}")
}
