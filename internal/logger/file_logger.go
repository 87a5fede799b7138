// Package logger writes per-account lifecycle logs to dated files under
// logs/. One logger per account; the mutex only covers the rare case of
// Close racing a late write during shutdown.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Level tags each log line.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
	LevelTrade
	LevelStatus
)

func (l Level) String() string {
	switch l {
	case LevelWarning:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelTrade:
		return "TRADE"
	case LevelStatus:
		return "STATUS"
	default:
		return "INFO"
	}
}

const timeLayout = "2006-01-02 15:04:05"

// Logger appends lifecycle events for one account to
// logs/guardian_<account>_<date>.log.
type Logger struct {
	account string

	mu   sync.Mutex
	file *os.File
}

// NewLogger opens (or creates) today's log file for the account and writes a
// session header.
func NewLogger(account string) (*Logger, error) {
	dir := "logs"
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("guardian_%s_%s.log", account, time.Now().Format("2006-01-02")))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := &Logger{account: account, file: file}
	l.header()
	return l, nil
}

func (l *Logger) header() {
	rule := "================================================================================"
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.file, "\n%s\nPOSITION GUARDIAN SESSION STARTED\n%s\nAccount: %s\nStarted: %s\n%s\n",
		rule, rule, l.account, time.Now().Format(timeLayout), rule)
}

// Log writes one leveled line.
func (l *Logger) Log(level Level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return
	}
	fmt.Fprintf(l.file, "[%s] [%s] %s\n", time.Now().Format(timeLayout), level, fmt.Sprintf(format, args...))
}

func (l *Logger) Info(format string, args ...interface{})    { l.Log(LevelInfo, format, args...) }
func (l *Logger) Warning(format string, args ...interface{}) { l.Log(LevelWarning, format, args...) }
func (l *Logger) Error(format string, args ...interface{})   { l.Log(LevelError, format, args...) }

// Trade records an issued exit or stop instruction.
func (l *Logger) Trade(format string, args ...interface{}) { l.Log(LevelTrade, format, args...) }

// Status records the per-cycle account summary.
func (l *Logger) Status(format string, args ...interface{}) { l.Log(LevelStatus, format, args...) }

// LogCycleStatus writes one evaluation cycle's account summary.
func (l *Logger) LogCycleStatus(equity, free, drawdownPct float64, openPositions int) {
	l.Status("equity=$%.2f free=$%.2f drawdown=%.2f%% positions=%d",
		equity, free, drawdownPct*100, openPositions)
}

// Close closes the underlying file. Later writes are dropped.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
