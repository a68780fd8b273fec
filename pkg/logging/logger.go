// Package logging provides the process-wide structured logger used by the
// intersection observers and the example programs.
//
// Call Init once at startup, before cars are spawned:
//
//	if err := logging.Init(logging.Config{Level: logging.LevelDebug}); err != nil {
//	    log.Fatal(err)
//	}
//
// GetLogger falls back to an INFO text logger on stderr when Init was never
// called.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	logger   *slog.Logger
	loggerMu sync.RWMutex
	isInited bool
)

// LogLevel represents logging verbosity
type LogLevel string

const (
	LevelDebug LogLevel = "DEBUG"
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
)

// ParseLevel accepts any casing of the four level names
func ParseLevel(s string) (LogLevel, error) {
	switch level := LogLevel(strings.ToUpper(strings.TrimSpace(s))); level {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return level, nil
	case "":
		return LevelInfo, nil
	default:
		return "", fmt.Errorf("unknown log level %q", s)
	}
}

// Slog converts the level to its slog value
func (l LogLevel) Slog() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config holds logger configuration
type Config struct {
	Level  LogLevel
	Output io.Writer // nil for stderr
	Format string    // "json" or "text"
}

// New builds a logger from config without touching the global one
func New(config Config) *slog.Logger {
	writer := config.Output
	if writer == nil {
		writer = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: config.Level.Slog()}
	if config.Format == "json" {
		return slog.New(slog.NewJSONHandler(writer, opts))
	}
	return slog.New(slog.NewTextHandler(writer, opts))
}

// Init installs the global logger. It fails if the logger was already
// initialised; call Reset first to replace it.
func Init(config Config) error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if isInited {
		return fmt.Errorf("logger already initialized; call Reset() first to reinitialize")
	}

	logger = New(config)
	isInited = true
	return nil
}

// Reset drops the global logger so Init can be called again
func Reset() {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	logger = nil
	isInited = false
}

// GetLogger returns the global logger, creating the default one if needed
func GetLogger() *slog.Logger {
	loggerMu.RLock()
	if isInited {
		l := logger
		loggerMu.RUnlock()
		return l
	}
	loggerMu.RUnlock()

	loggerMu.Lock()
	defer loggerMu.Unlock()
	if !isInited {
		logger = New(Config{Level: LevelInfo})
		isInited = true
	}
	return logger
}

// WithComponent creates a logger with component context
func WithComponent(component string) *slog.Logger {
	return GetLogger().With("component", component)
}

// WithCar creates a logger carrying a car's id
//
//	log := logging.WithCar(7)
//	log.Info("in quadrant", "quadrant", "NW")
func WithCar(carID int) *slog.Logger {
	return GetLogger().With("car", carID)
}

// WithLock creates a logger carrying a lock name
func WithLock(name string) *slog.Logger {
	return GetLogger().With("lock", name)
}

// WithError creates a logger with error context
func WithError(err error) *slog.Logger {
	return GetLogger().With("error", err.Error())
}
