package autoplay

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/notebeat/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging writes logs to stdout and, when logFile is set, to that file.
// The returned closer releases the file.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	var (
		w      io.Writer = os.Stdout
		closer io.Closer = io.NopCloser(nil)
	)
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, file)
		closer = file
	}
	if err := logger.Init(logger.WithWriter(w)); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		if err := logger.SetLevelString("debug"); err != nil {
			return nil, err
		}
	}
	return closer, nil
}

// ShowHelp prints usage information for the autoplay tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `notebeat autoplay
=================

Plays a game against a running notebeat service by tapping every note it
sees, then checks that the final score matches the points awarded.

Usage:
  go run ./cmd/autoplay [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -player string
        Player name recorded in the high-score table (default "autoplay")
  -duration duration
        How long to play before stopping; 0 plays until the track ends (default 30s)
  -poll duration
        Delay between object listings (default 100ms)
  -workers int
        Number of concurrent tappers (default 4)
  -skip int
        Leave every Nth note untouched; 0 taps everything
  -timeout duration
        HTTP request timeout (default 5s)
  -log string
        Also write logs to this file
  -verbose
        Log every tap
  -help
        Show this help message

Examples:
  # Play for 30 seconds
  go run ./cmd/autoplay

  # Play the whole track as alice, missing every third note
  go run ./cmd/autoplay -player alice -duration 0 -skip 3
`)
}
