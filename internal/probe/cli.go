package probe

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/steamcompass/compass/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging sends log output to stderr and a file. If logFile is empty, a
// timestamped filename is generated. The returned closer releases the file.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	if logFile == "" {
		logFile = "probe_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	if err := logger.Init(logger.WithWriter(io.MultiWriter(os.Stderr, file))); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return file, nil
}

// ShowHelp prints usage information for the probe.
func ShowHelp(w io.Writer) {
	io.WriteString(w, `Compass Probe
=============

Drives a running compass server: submits a batch of games, syncs a Steam
library, waits for the job and prints what came back.

Usage:
  go run ./cmd/compass-probe [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -user string
        User id results are stored under (default "probe")
  -steam string
        Steam account id to sync; empty skips the sync
  -games string
        JSON file with [{"appid":620,"name":"Portal 2","playtime_minutes":600}, ...]
  -concurrency int
        Games aggregated per chunk (default: server setting)
  -delay int
        Milliseconds between chunks (default: server setting)
  -top int
        Games shown in the summary (default 10)
  -timeout duration
        HTTP request timeout (default 30s)
  -poll duration
        Interval between job status checks (default 2s)
  -log string
        Log file (default: probe_TIMESTAMP.log)
  -verbose
        Debug logging and every game in the summary
  -help
        Show this help message

Examples:
  # Aggregate a handful of games
  go run ./cmd/compass-probe -games games.json -concurrency 3 -delay 0

  # Sync a library and print the collection summary
  go run ./cmd/compass-probe -user alice -steam 76561197960287930
`)
}
