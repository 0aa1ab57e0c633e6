package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/paddock/internal/probe"
)

const defaultRunTimeout = 5 * time.Minute

func main() {
	var (
		baseURL  = flag.String("url", probe.DefaultBaseURL, "Base URL of the server")
		timeout  = flag.Duration("timeout", probe.DefaultTimeout, "Per request timeout")
		settle   = flag.Duration("settle", probe.DefaultSettle, "How long to wait for data after each transition")
		driverID = flag.Int("driver", 0, "Driver id to select (0 picks the first option)")
		teamID   = flag.Int("team", 0, "Team id to select (0 picks the first option)")
		message  = flag.String("chat", "", "Message to send through the chat relay")
		verbose  = flag.Bool("verbose", false, "Enable verbose logging")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		probe.ShowHelp(os.Stdout)
		return
	}

	if err := probe.SetupLogging(os.Stdout, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	_, err := probe.Run(ctx, &probe.Config{
		BaseURL:  *baseURL,
		Timeout:  *timeout,
		Settle:   *settle,
		DriverID: *driverID,
		TeamID:   *teamID,
		Chat:     *message,
		Verbose:  *verbose,
	})
	if err != nil {
		os.Stderr.WriteString("Probe failed: " + err.Error() + "\n")
		cancel()
		stop()
		os.Exit(1)
	}
}
