// Package logging configures the process-wide structured logger.
package logging

import (
	"io"
	stdlog "log"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Options controls how the default logger is built
type Options struct {
	Level  string
	JSON   bool
	Caller bool
	Output io.Writer
}

// New creates a logger from options without installing it
func New(opts Options) *log.Logger {
	w := opts.Output
	if w == nil {
		w = os.Stderr
	}

	level, err := log.ParseLevel(strings.ToLower(opts.Level))
	if err != nil {
		level = log.InfoLevel
	}

	formatter := log.TextFormatter
	if opts.JSON {
		formatter = log.JSONFormatter
	}

	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		ReportCaller:    opts.Caller,
		Level:           level,
		Formatter:       formatter,
	})
}

// Setup builds a logger and installs it as the package default so that
// log.Info/log.Warn calls anywhere in the process use it.
func Setup(opts Options) *log.Logger {
	logger := New(opts)
	log.SetDefault(logger)
	return logger
}

// With returns a child of the default logger carrying the given key/value pairs
func With(kv ...any) *log.Logger {
	return log.Default().With(kv...)
}

// StdLogger adapts the default logger for libraries that expect a *log.Logger
// from the standard library (gorm's logger writer, http.Server.ErrorLog).
func StdLogger(level log.Level) *stdlog.Logger {
	return log.Default().StandardLog(log.StandardLogOptions{ForceLevel: level})
}
