package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the name of the log file written under Config.Path.
const FileName = "releasedecider.log"

// Logger wraps zerolog for application logging.
type Logger struct {
	zerolog.Logger
	rotator *lumberjack.Logger
	recent  *EntryBuffer
}

// Config holds logger configuration.
type Config struct {
	Level      string
	Format     string    // "console" or "json"
	Path       string    // directory for log files
	MaxSizeMB  int       // max size in MB before rotation (default: 10)
	MaxBackups int       // max number of old log files to keep (default: 5)
	MaxAgeDays int       // max age in days to keep old files (default: 30)
	Compress   bool      // compress rotated files
	Recent     int       // entries kept in memory for the API (0 disables)
	Output     io.Writer // console destination (default: stderr)
}

// New creates a new logger instance.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	var consoleOutput io.Writer
	if cfg.Format == "json" {
		consoleOutput = out
	} else {
		consoleOutput = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	writers := []io.Writer{consoleOutput}
	var rotator *lumberjack.Logger

	if cfg.Path != "" {
		if err := os.MkdirAll(cfg.Path, 0o755); err == nil {
			rotator = &lumberjack.Logger{
				Filename:   filepath.Join(cfg.Path, FileName),
				MaxSize:    orDefault(cfg.MaxSizeMB, 10),
				MaxBackups: orDefault(cfg.MaxBackups, 5),
				MaxAge:     orDefault(cfg.MaxAgeDays, 30),
				Compress:   cfg.Compress,
				LocalTime:  true,
			}
			writers = append(writers, rotator)
		}
	}

	var recent *EntryBuffer
	if cfg.Recent > 0 {
		recent = NewEntryBuffer(cfg.Recent)
		writers = append(writers, recent)
	}

	var output io.Writer = consoleOutput
	if len(writers) > 1 {
		output = zerolog.MultiLevelWriter(writers...)
	}

	logger := zerolog.New(output).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()

	return &Logger{Logger: logger, rotator: rotator, recent: recent}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// Close closes the log file if one is open.
func (l *Logger) Close() error {
	if l.rotator != nil {
		return l.rotator.Close()
	}
	return nil
}

// FilePath returns the active log file, or "" when logging to console only.
func (l *Logger) FilePath() string {
	if l.rotator == nil {
		return ""
	}
	return l.rotator.Filename
}

// RecentEntries returns the buffered log entries, oldest first.
func (l *Logger) RecentEntries() []Entry {
	if l.recent == nil {
		return nil
	}
	return l.recent.Entries()
}

// ParseLevel converts a level name to a zerolog.Level. Unknown names map to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithComponent returns a new logger with component field.
func (l *Logger) WithComponent(component string) zerolog.Logger {
	return l.Logger.With().Str("component", component).Logger()
}
