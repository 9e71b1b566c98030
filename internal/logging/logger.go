// Package logging attaches a zerolog logger to a context.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Prathap331/SB-Next/internal/storage"
)

const (
	maxLogSizeMB  = 10
	maxLogBackups = 3
	maxLogAgeDays = 30
)

// Log levels - aliases for zerolog levels
const (
	ErrorLevel = zerolog.ErrorLevel
	WarnLevel  = zerolog.WarnLevel
	InfoLevel  = zerolog.InfoLevel
	DebugLevel = zerolog.DebugLevel
	TraceLevel = zerolog.TraceLevel
)

// Config defines the configuration for logger creation
type Config struct {
	Writer io.Writer
	// Path overrides the XDG log file location when Writer is nil.
	Path    string
	Service string
	Level   zerolog.Level
	// Console additionally writes human-readable output to stderr.
	Console bool
}

// New creates a new context with a logger attached.
// For production: provide fs and leave Writer nil for rotating file logging.
// For tests: provide a custom Writer (like strings.Builder) for in-memory logging.
func New(ctx context.Context, fs afero.Fs, config Config) (context.Context, error) {
	writer, err := resolveWriter(fs, config)
	if err != nil {
		return nil, err
	}

	if config.Console {
		writer = zerolog.MultiLevelWriter(writer, zerolog.ConsoleWriter{Out: os.Stderr})
	}

	logger := zerolog.New(writer).With().
		Timestamp().
		Str("service", config.Service).
		Logger().
		Level(config.Level)

	return logger.WithContext(ctx), nil
}

func resolveWriter(fs afero.Fs, config Config) (io.Writer, error) {
	if config.Writer != nil {
		return config.Writer, nil
	}
	if fs == nil {
		return nil, errors.New("filesystem required when no writer provided")
	}

	logFile := config.Path
	if logFile == "" {
		path, err := storage.New(fs).GetLogPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get log path: %w", err)
		}
		logFile = path
	}

	return &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    maxLogSizeMB,
		MaxBackups: maxLogBackups,
		MaxAge:     maxLogAgeDays,
	}, nil
}

// ParseLevel converts a config string to a level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	if level == "" {
		return InfoLevel
	}
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return InfoLevel
	}
	return parsed
}

// Get retrieves the logger from the provided context.
// Returns a disabled logger if none is attached.
func Get(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}
