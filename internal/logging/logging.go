package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitDefault installs a console logger before configuration is loaded
func InitDefault() {
	Init("info", "console", false)
}

// Init configures the global zerolog logger. Unknown levels fall back to info
// and unknown formats fall back to console.
func Init(level, format string, noColor bool) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	log.Logger = zerolog.New(writer(format, noColor, os.Stderr)).With().Timestamp().Logger()
}

func writer(format string, noColor bool, out io.Writer) io.Writer {
	if strings.EqualFold(format, "json") {
		return out
	}
	return zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    noColor,
		TimeFormat: time.Kitchen,
	}
}

// WithCorrelationID returns a child logger tagged with the request correlation id
func WithCorrelationID(id string) zerolog.Logger {
	return log.With().Str("correlation_id", id).Logger()
}
