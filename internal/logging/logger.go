package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Logger is the process-wide logger. It writes text to stderr until Init runs.
var Logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      time.RFC3339,
	Level:           log.InfoLevel,
})

// Init configures Logger from LOG_LEVEL and APP_ENV. Production logs are JSON.
func Init(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))))
	if err != nil {
		level = log.InfoLevel
	}
	opts := log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           level,
		Prefix:          "shelf",
	}
	if strings.EqualFold(os.Getenv("APP_ENV"), "production") {
		opts.Formatter = log.JSONFormatter
	}
	Logger = log.NewWithOptions(w, opts)
}

func Info(msg string, keyvals ...any) {
	Logger.Info(msg, keyvals...)
}

func Debug(msg string, keyvals ...any) {
	Logger.Debug(msg, keyvals...)
}

func Warn(msg string, keyvals ...any) {
	Logger.Warn(msg, keyvals...)
}

func Error(msg string, keyvals ...any) {
	Logger.Error(msg, keyvals...)
}

// Fatal logs and exits with status 1.
func Fatal(msg string, keyvals ...any) {
	Logger.Fatal(msg, keyvals...)
}

// WithPrefix returns a child logger for one subsystem.
func WithPrefix(prefix string) *log.Logger {
	return Logger.WithPrefix(prefix)
}
