package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/tonuslab/tonus/internal/seeder"
)

// Default configuration constants.
const (
	defaultNumSessions         = 200
	defaultMutationsPerSession = 50
	defaultWorkers             = 2 // multiplier for runtime.NumCPU()
	defaultTimeout             = 30 * time.Second
	defaultRunTimeout          = 10 * time.Minute
)

func main() {
	var (
		baseURL             = flag.String("url", "http://localhost:9180", "Base URL of the service")
		numSessions         = flag.Int("sessions", defaultNumSessions, "Number of sessions to create")
		mutationsPerSession = flag.Int("mutations", defaultMutationsPerSession, "Number of mutations per session")
		workers             = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout             = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile          = flag.String("output", "", "Report file for submitted mutations (default: seed_report_TIMESTAMP.json.zst)")
		logFile             = flag.String("log", "", "Log file for run output (default: seed_log_TIMESTAMP.log)")
		verify              = flag.Bool("verify", true, "Read sessions back and check invariants")
		verbose             = flag.Bool("verbose", false, "Enable verbose logging")
		help                = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seeder.ShowHelp()
		return
	}

	// Setup logging
	logHandle, err := seeder.SetupLogging(*logFile)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logHandle.Close()
	}()

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	// Create seeding configuration
	config := &seeder.Config{
		BaseURL:             *baseURL,
		NumSessions:         *numSessions,
		MutationsPerSession: *mutationsPerSession,
		Workers:             *workers,
		Timeout:             *timeout,
		OutputFile:          *outputFile,
		LogFile:             *logFile,
		Verify:              *verify,
		Verbose:             *verbose,
	}

	// Run the seeding pass
	if err := seeder.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Seeding failed: " + err.Error() + "\n")
		return
	}
}
