package probe

import (
	"fmt"
	"io"

	"github.com/okian/paddock/pkg/logger"
)

// SetupLogging initialises the global logger for the probe. Verbose runs
// log at debug level.
func SetupLogging(w io.Writer, verbose bool) error {
	if err := logger.Init(logger.WithWriter(w)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information for the probe tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `paddock probe
=============

Walks a running paddock server through one filter cycle and checks the
dashboard invariants: leaderboards hold at most five rows, selecting a
driver drops the team and the reverse, data always matches the filter.

Usage:
  go run ./cmd/probe [options]

Options:
  -url string
        Base URL of the server (default "http://localhost:9080")
  -timeout duration
        Per request timeout (default 10s)
  -settle duration
        How long to wait for data after each transition (default 30s)
  -driver int
        Driver id to select (default: first option)
  -team int
        Team id to select (default: first option)
  -chat string
        Message to send through the chat relay (default: skip)
  -verbose
        Log every dashboard poll
  -help
        Show this help message

Examples:
  # Probe a local server
  go run ./cmd/probe

  # Probe a specific driver and ask the assistant a question
  go run ./cmd/probe -driver 1 -chat "Who won the 2008 championship?"

Exit status is 1 when any step fails.
`)
}
