// Package gitmetricslog provides the single structured logger shared by
// every command and backend in this module. Every log line carries a
// timestamp; the default level is warn, keeping output terse for a
// short-lived CLI process.
package gitmetricslog

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Logger is the package-wide logger. Commands and backends log through
// this value rather than constructing their own.
var Logger = newDefault()

func newDefault() zerolog.Logger {
	var writer = zerolog.ConsoleWriter{Out: os.Stderr, NoColor: !isatty.IsTerminal(os.Stderr.Fd())}
	return zerolog.New(writer).Level(zerolog.WarnLevel).With().Timestamp().Logger()
}

// SetLevel parses lvl ("debug", "info", "warn", "error", "crit") and
// applies it to Logger, mirroring the teacher's SetLogLevel contract.
func SetLevel(lvl string) {
	if lvl == "crit" {
		lvl = "fatal"
	}
	parsed, err := zerolog.ParseLevel(lvl)
	if err != nil {
		Logger = Logger.Level(zerolog.InfoLevel)
		Logger.Warn().Str("value", lvl).Msg("invalid log level, defaulting to info")
		return
	}
	Logger = Logger.Level(parsed)
}

// SetJSON switches the logger to newline-delimited JSON output, useful
// when git-metrics runs inside CI and its logs are scraped by another
// tool.
func SetJSON() {
	Logger = zerolog.New(os.Stderr).Level(Logger.GetLevel()).With().Timestamp().Logger()
}
