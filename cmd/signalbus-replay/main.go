// Package main provides the replay CLI: it reads a recorded frame
// file, optionally prints a session summary, and retransmits the
// frames to a live ingress endpoint.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/c360/signalbus/replay"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "signalbus-replay"
)

// cliFlags holds parsed command-line flags
type cliFlags struct {
	input       string
	endpoint    string
	summary     bool
	timeout     time.Duration
	verbose     bool
	showVersion bool
}

func main() {
	flags := parseCommandLineFlags()

	if flags.showVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return
	}

	logger := setupLogger(flags.verbose)

	if err := run(flags, logger); err != nil {
		logger.Error("Replay failed", "error", err)
		os.Exit(1)
	}
}

// parseCommandLineFlags parses and returns command-line flags
func parseCommandLineFlags() *cliFlags {
	flags := &cliFlags{}

	flag.StringVar(&flags.input, "input", "",
		"Path to a recorded frame file (JSON lines)")
	flag.StringVar(&flags.endpoint, "endpoint", "",
		"WebSocket ingress endpoint, e.g. ws://localhost:8787/signal; empty skips the send")
	flag.BoolVar(&flags.summary, "summary", false,
		"Print a session summary as JSON before sending")
	flag.DurationVar(&flags.timeout, "timeout", 0,
		"Send deadline, 0 waits for acknowledgements indefinitely")
	flag.BoolVar(&flags.verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&flags.showVersion, "version", false, "Show version information")

	// Support environment variables for scripted runs
	if envInput := os.Getenv("SIGNALBUS_REPLAY_INPUT"); envInput != "" {
		flags.input = envInput
	}
	if envEndpoint := os.Getenv("SIGNALBUS_REPLAY_ENDPOINT"); envEndpoint != "" {
		flags.endpoint = envEndpoint
	}

	flag.Parse()
	return flags
}

func run(flags *cliFlags, logger *slog.Logger) error {
	if flags.input == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -input")
	}

	frames, err := replay.ReadFrames(flags.input)
	if err != nil {
		return err
	}
	logger.Info("Frames loaded", "path", flags.input, "frames", len(frames))

	if flags.summary {
		report, err := json.MarshalIndent(replay.Summarize(frames), "", "  ")
		if err != nil {
			return fmt.Errorf("marshal summary: %w", err)
		}
		fmt.Println(string(report))
	}

	if flags.endpoint == "" {
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if flags.timeout > 0 {
		var timeoutCancel context.CancelFunc
		ctx, timeoutCancel = context.WithTimeout(ctx, flags.timeout)
		defer timeoutCancel()
	}

	start := time.Now()
	if err := replay.SendFrames(ctx, flags.endpoint, frames); err != nil {
		return err
	}

	logger.Info("Replay complete",
		"endpoint", flags.endpoint,
		"frames", len(frames),
		"elapsed", time.Since(start))
	return nil
}

func setupLogger(verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
	slog.SetDefault(logger)
	return logger
}
