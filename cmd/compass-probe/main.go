package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/steamcompass/compass/internal/probe"
)

const defaultProbeTimeout = 30 * time.Minute

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		userID      = flag.String("user", "probe", "User id results are stored under")
		steamID     = flag.String("steam", "", "Steam account id to sync")
		gamesFile   = flag.String("games", "", "JSON file with games to submit as a batch")
		concurrency = flag.Int("concurrency", 0, "Games aggregated per chunk")
		delay       = flag.Int("delay", -1, "Milliseconds between chunks")
		top         = flag.Int("top", probe.DefaultTop, "Games shown in the summary")
		timeout     = flag.Duration("timeout", probe.DefaultTimeout, "HTTP request timeout")
		poll        = flag.Duration("poll", probe.DefaultPollInterval, "Interval between job status checks")
		logFile     = flag.String("log", "", "Log file (default: probe_TIMESTAMP.log)")
		verbose     = flag.Bool("verbose", false, "Enable verbose output")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		probe.ShowHelp(os.Stdout)
		return
	}

	closer, err := probe.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultProbeTimeout)
	defer cancel()

	config := &probe.Config{
		BaseURL:      *baseURL,
		UserID:       *userID,
		SteamID:      *steamID,
		GamesFile:    *gamesFile,
		Concurrency:  *concurrency,
		DelayMS:      *delay,
		Timeout:      *timeout,
		PollInterval: *poll,
		Top:          *top,
		LogFile:      *logFile,
		Verbose:      *verbose,
	}

	report, err := probe.Run(ctx, config)
	if report != nil {
		probe.PrintReport(os.Stdout, report, config.Top, config.Verbose)
	}
	if err != nil {
		os.Stderr.WriteString("Probe failed: " + err.Error() + "\n")
		closer.Close()
		os.Exit(1)
	}
}
