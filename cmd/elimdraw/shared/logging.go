package shared

import (
	"os"

	"github.com/charmbracelet/log"
)

// SetupLogger configures console logging to stderr.
func SetupLogger(debug bool) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})
	if debug {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// SetupLoggerWithLevel configures logging from a level name. Unknown names
// fall back to info.
func SetupLoggerWithLevel(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})
	if parsed, err := log.ParseLevel(level); err == nil {
		logger.SetLevel(parsed)
	}
	return logger
}
