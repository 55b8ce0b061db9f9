package seeder

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/tonuslab/tonus/pkg/logger"
)

// directoryPermission is applied when the report target directory is created.
const directoryPermission = 0750

// Run drives the full seeding pass: health check, session creation, mutation
// generation and submission, optional read-back verification, and the report.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{StartTime: time.Now()}
	runLog := logger.Get().Named("seeder")

	if config.Workers < 1 {
		config.Workers = 1
	}

	runLog.Info(ctx, "starting session seeding run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("sessions", config.NumSessions),
		logger.Int("mutationsPerSession", config.MutationsPerSession),
		logger.Int("workers", config.Workers),
		logger.Bool("verify", config.Verify),
	)

	// Step 1: make sure the service is reachable before generating anything.
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}
	log.Printf("✅ Service is healthy at %s", config.BaseURL)

	// Step 2: create the sessions that the mutations will target.
	sessionIDs, err := createSessions(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("session creation failed: %w", err)
	}

	// Step 3: generate the mutation mix up front so the report is complete
	// even when submission is interrupted.
	log.Printf("🆕 Generating %d mutations across %d sessions...", config.NumSessions*config.MutationsPerSession, len(sessionIDs))
	mutations, err := generateMutations(ctx, config, sessionIDs, stats)
	if err != nil {
		return fmt.Errorf("mutation generation failed: %w", err)
	}
	log.Printf("✅ Generated %d mutations", len(mutations))

	// Step 4: submit.
	if err := submitMutations(ctx, config, mutations, stats); err != nil {
		return fmt.Errorf("mutation submission failed: %w", err)
	}

	// Step 5: give the save pipeline a moment to drain before reading back.
	log.Printf("⏳ Waiting %s for saves to drain...", SettleDelay)
	time.Sleep(SettleDelay)

	// Step 6: read every session back and check the engine's invariants.
	var verifyErr error
	if config.Verify {
		if err := checkSessionListing(ctx, config, stats); err != nil {
			runLog.Warn(ctx, "listing check failed", logger.Err(err))
		}
		verifyErr = verifySessions(ctx, config, sessionIDs, stats)
	}

	// The report is written even when verification failed, so the mutation
	// mix that produced the failure can be replayed.
	if err := saveReport(config, mutations); err != nil {
		runLog.Warn(ctx, "failed to save report", logger.Err(err))
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(ctx, runLog, stats)

	return verifyErr
}

// checkServiceHealth probes the health endpoint once.
func checkServiceHealth(ctx context.Context, config *Config) error {
	client := newHTTPClient(config.Timeout)

	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("health request failed: %w", err)
	}
	if _, err := readResponseBody(resp); err != nil {
		return fmt.Errorf("health response read failed: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("health endpoint returned status %d", resp.StatusCode)
	}

	return nil
}

// saveReport writes the submitted mutations as zstd-compressed JSON so a run
// can be replayed against another instance.
func saveReport(config *Config, mutations []Mutation) error {
	filename := config.OutputFile
	if filename == "" {
		filename = "seed_report_" + time.Now().Format("20060102_150405") + ".json.zst"
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}

	zw, err := zstd.NewWriter(file)
	if err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to create report compressor: %w", err)
	}

	encoder := json.NewEncoder(zw)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(mutations); err != nil {
		_ = zw.Close()
		_ = file.Close()
		return fmt.Errorf("failed to encode report: %w", err)
	}

	if err := zw.Close(); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to flush report: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close report file: %w", err)
	}

	log.Printf("📊 Report saved to %s (%d mutations)", filename, len(mutations))
	return nil
}

// displayFinalStats summarizes the run on both log surfaces.
func displayFinalStats(ctx context.Context, runLog logger.Logger, stats *Stats) {
	successRate := 0.0
	if stats.MutationsSubmitted > 0 {
		successRate = float64(stats.MutationsSuccessful) / float64(stats.MutationsSubmitted) * PercentageMultiplier
	}
	mutationsPerSecond := 0.0
	if stats.Duration.Seconds() > 0 {
		mutationsPerSecond = float64(stats.MutationsSubmitted) / stats.Duration.Seconds()
	}

	runLog.Info(ctx, "seeding run completed",
		logger.Int("sessionsCreated", stats.SessionsCreated),
		logger.Int("mutationsGenerated", stats.MutationsGenerated),
		logger.Int("mutationsSubmitted", stats.MutationsSubmitted),
		logger.Int("mutationsSuccessful", stats.MutationsSuccessful),
		logger.Int("mutationsRejected", stats.MutationsRejected),
		logger.Int("mutationsFailed", stats.MutationsFailed),
		logger.Int("sessionsListed", stats.SessionsListed),
		logger.Int("sessionsVerified", stats.SessionsVerified),
		logger.Int("invariantFailures", stats.InvariantFailures),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("mutationsPerSecond", mutationsPerSecond),
	)

	log.Printf("📊 Final: %d sessions, %d/%d mutations accepted (%.1f%%), %d rejected, %d failed, %.0f mutations/s",
		stats.SessionsCreated,
		stats.MutationsSuccessful,
		stats.MutationsSubmitted,
		successRate,
		stats.MutationsRejected,
		stats.MutationsFailed,
		mutationsPerSecond,
	)
}
