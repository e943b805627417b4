package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eve-telescope/telescope-app/internal/lookupcli"
	"github.com/eve-telescope/telescope-app/pkg/logger"
)

// Default configuration constants.
const (
	defaultTimeout = 2 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		file       = flag.String("file", "", "File with one pilot name per line (default: stdin)")
		stream     = flag.Bool("stream", false, "Use the streaming endpoint and print progress")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		jsonOut    = flag.Bool("json", false, "Print results as JSON")
		clearCache = flag.Bool("clear-cache", false, "Clear the service cache before the lookup")
		logFile    = flag.String("log", "", "Also write logs to this file")
		logLevel   = flag.String("log-level", "warn", "Log level (debug, info, warn, error)")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		lookupcli.ShowHelp(os.Stdout)
		return
	}

	logOut, closeLog, err := lookupcli.OpenLog(*logFile)
	if err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = closeLog() }()
	if err := logger.InitWithWriter(logOut); err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.SetLevelString(*logLevel); err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config := &lookupcli.Config{
		BaseURL:    *baseURL,
		File:       *file,
		Stream:     *stream,
		Timeout:    *timeout,
		JSON:       *jsonOut,
		ClearCache: *clearCache,
		LogFile:    *logFile,
	}

	if _, err := lookupcli.Run(ctx, config, os.Stdin, os.Stdout); err != nil {
		_, _ = os.Stderr.WriteString("Lookup failed: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}
