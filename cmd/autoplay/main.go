package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/notebeat/internal/autoplay"
)

// Default configuration constants.
const (
	defaultDuration = 30 * time.Second
	defaultWorkers  = 4
	defaultTimeout  = 5 * time.Second
	defaultPlayer   = "autoplay"
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		player   = flag.String("player", defaultPlayer, "Player name recorded in the high-score table")
		duration = flag.Duration("duration", defaultDuration, "How long to play before stopping; 0 plays until the track ends")
		poll     = flag.Duration("poll", autoplay.DefaultPollInterval, "Delay between object listings")
		workers  = flag.Int("workers", defaultWorkers, "Number of concurrent tappers")
		skip     = flag.Int("skip", 0, "Leave every Nth note untouched; 0 taps everything")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile  = flag.String("log", "", "Also write logs to this file")
		verbose  = flag.Bool("verbose", false, "Log every tap")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		autoplay.ShowHelp(os.Stdout)
		return
	}

	closer, err := autoplay.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = closer.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = autoplay.Run(ctx, &autoplay.Config{
		BaseURL:      *baseURL,
		Player:       *player,
		Duration:     *duration,
		PollInterval: *poll,
		Workers:      *workers,
		Timeout:      *timeout,
		Skip:         *skip,
		Verbose:      *verbose,
	})
	if err != nil {
		os.Stderr.WriteString("Autoplay failed: " + err.Error() + "\n")
		stop()
		_ = closer.Close()
		os.Exit(1)
	}
}
