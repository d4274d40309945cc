// Package logging wires the packaging pipeline to hclog the way the
// reference builder does: one named logger per component, structured
// key-value fields instead of ad-hoc Printf calls.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
)

// New creates a new hclog logger with the project's standard settings.
//
// Level is parsed with hclog.LevelFromString; an empty or unrecognized
// value falls back to hclog's default (Info). Output defaults to stderr.
// When GDPACK_JSON_LOG=1 the logger emits structured JSON lines instead of
// the human-readable prefixed format.
func New(name, level string, output io.Writer) hclog.Logger {
	if output == nil {
		output = os.Stderr
	}

	jsonFormat := os.Getenv("GDPACK_JSON_LOG") == "1"
	if !jsonFormat {
		output = NewPrefixWriter("["+name+"] ", output)
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(level),
		JSONFormat: jsonFormat,
		Output:     output,
		TimeFormat: "2006-01-02T15:04:05Z",
		TimeFn: func() time.Time {
			return time.Now().UTC()
		},
	})
}

// LevelFromEnv returns the configured log level, defaulting to "warn" so
// that a caller embedding the packaging core as a library doesn't get
// flooded with debug output unless it asks for it.
func LevelFromEnv() string {
	if level := os.Getenv("GDPACK_LOG_LEVEL"); level != "" {
		return level
	}
	return "warn"
}
