package seeder

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"sync/atomic"
)

// Invariant tolerances and clamp windows checked during verification.
const (
	sumTolerance        = 1e-6
	derivedTolerance    = 1e-6
	mvcClampMin         = 0.0
	mvcClampMax         = 100.0
	durationClampMin    = 0.5
	durationClampMax    = 10.0
	maxReportedFailures = 10
)

// sessionSnapshot is the client-side read model of GET /sessions/{id}.
type sessionSnapshot struct {
	SessionID    string `json:"sessionId"`
	Revision     int64  `json:"revision"`
	ActivePreset string `json:"activePreset"`
	Weights      struct {
		Compliance float64 `json:"compliance"`
		Symmetry   float64 `json:"symmetry"`
		Effort     float64 `json:"effort"`
		GameScore  float64 `json:"gameScore"`
	} `json:"weights"`
	SubWeights struct {
		Completion float64 `json:"completion"`
		Intensity  float64 `json:"intensity"`
		Duration   float64 `json:"duration"`
	} `json:"complianceSubWeights"`
	Thresholds struct {
		Default  channelThreshold            `json:"default"`
		Channels map[string]channelThreshold `json:"channels"`
	} `json:"thresholds"`
	BFR struct {
		AOPMeasured     float64 `json:"aopMeasured"`
		AppliedPressure float64 `json:"appliedPressure"`
		RangeMin        float64 `json:"therapeuticRangeMin"`
		RangeMax        float64 `json:"therapeuticRangeMax"`
		PercentAOP      float64 `json:"percentageAop"`
		Compliant       bool    `json:"isCompliant"`
		FailureReason   string  `json:"failureReason"`
	} `json:"bfr"`
	Game struct {
		Algorithm string  `json:"algorithm"`
		MinScore  float64 `json:"minScore"`
		MaxScore  float64 `json:"maxScore"`
	} `json:"gameScoreNormalization"`
}

// channelThreshold mirrors the per-channel threshold wire shape.
type channelThreshold struct {
	MVCPercent      float64 `json:"mvcThresholdPercentage"`
	DurationSeconds float64 `json:"durationThresholdSeconds"`
}

// verifySessions reads every session back and checks the structural
// invariants the engine promises regardless of mutation order.
func verifySessions(ctx context.Context, config *Config, sessionIDs []string, stats *Stats) error {
	log.Printf("🔍 Verifying %d sessions...", len(sessionIDs))

	client := newHTTPClient(config.Timeout)

	var verified, failures int64
	var mu sync.Mutex
	var reported []string

	idChan := make(chan string, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for id := range idChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				violations := verifySingleSession(ctx, client, config.BaseURL, id)
				if len(violations) == 0 {
					atomic.AddInt64(&verified, 1)
					continue
				}

				atomic.AddInt64(&failures, 1)
				mu.Lock()
				if len(reported) < maxReportedFailures {
					reported = append(reported, fmt.Sprintf("%s: %v", id, violations))
				}
				mu.Unlock()
			}
		}()
	}

	go func() {
		defer close(idChan)
		for _, id := range sessionIDs {
			select {
			case <-ctx.Done():
				return
			case idChan <- id:
			}
		}
	}()

	wg.Wait()

	stats.SessionsVerified = int(atomic.LoadInt64(&verified))
	stats.InvariantFailures = int(atomic.LoadInt64(&failures))

	for _, line := range reported {
		log.Printf("⚠️  Invariant violation: %s", line)
	}

	if n := atomic.LoadInt64(&failures); n > 0 {
		return fmt.Errorf("%d of %d sessions violated invariants", n, len(sessionIDs))
	}

	log.Printf("✅ All %d sessions satisfied the invariants", stats.SessionsVerified)
	return nil
}

// sessionListing mirrors one row of GET /sessions.
type sessionListing struct {
	SessionID string `json:"sessionId"`
	Revision  int64  `json:"revision"`
}

// checkSessionListing fetches the most recently updated sessions and makes
// sure the listing itself is coherent. The listing is capped server-side, so
// this checks shape rather than completeness.
func checkSessionListing(ctx context.Context, config *Config, stats *Stats) error {
	client := newHTTPClient(config.Timeout)

	resp, err := client.Get(ctx, config.BaseURL+"/sessions")
	if err != nil {
		return fmt.Errorf("listing request failed: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("listing read failed: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("listing returned status %d", resp.StatusCode)
	}

	var rows []sessionListing
	if err := unmarshalJSON(body, &rows); err != nil {
		return fmt.Errorf("listing decode failed: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("listing returned no sessions after seeding")
	}
	for _, row := range rows {
		if row.SessionID == "" {
			return fmt.Errorf("listing contains a row without a session id")
		}
		if row.Revision < 1 {
			return fmt.Errorf("listing row %s has revision %d", row.SessionID, row.Revision)
		}
	}

	stats.SessionsListed = len(rows)
	log.Printf("✅ Listing returned %d coherent rows", len(rows))
	return nil
}

// verifySingleSession fetches one snapshot and returns the list of violated
// invariants, empty when the session is healthy.
func verifySingleSession(ctx context.Context, client *HTTPClient, baseURL, sessionID string) []string {
	resp, err := client.Get(ctx, baseURL+"/sessions/"+sessionID)
	if err != nil {
		return []string{fmt.Sprintf("fetch failed: %v", err)}
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return []string{fmt.Sprintf("read failed: %v", err)}
	}
	if resp.StatusCode != StatusOK {
		return []string{fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	var snap sessionSnapshot
	if err := unmarshalJSON(body, &snap); err != nil {
		return []string{fmt.Sprintf("decode failed: %v", err)}
	}

	return checkSnapshot(&snap)
}

// checkSnapshot applies the engine's structural invariants to one snapshot.
func checkSnapshot(snap *sessionSnapshot) []string {
	var violations []string

	if snap.Revision < 1 {
		violations = append(violations, fmt.Sprintf("revision %d below 1", snap.Revision))
	}

	weightSum := snap.Weights.Compliance + snap.Weights.Symmetry + snap.Weights.Effort + snap.Weights.GameScore
	if math.Abs(weightSum-1.0) > sumTolerance {
		violations = append(violations, fmt.Sprintf("weights sum %.9f", weightSum))
	}

	subSum := snap.SubWeights.Completion + snap.SubWeights.Intensity + snap.SubWeights.Duration
	if math.Abs(subSum-1.0) > sumTolerance {
		violations = append(violations, fmt.Sprintf("sub weights sum %.9f", subSum))
	}

	checkThreshold := func(name string, t channelThreshold) {
		if t.MVCPercent < mvcClampMin || t.MVCPercent > mvcClampMax {
			violations = append(violations, fmt.Sprintf("%s mvc %.3f outside %.0f..%.0f", name, t.MVCPercent, mvcClampMin, mvcClampMax))
		}
		if t.DurationSeconds < durationClampMin || t.DurationSeconds > durationClampMax {
			violations = append(violations, fmt.Sprintf("%s duration %.3f outside %.1f..%.1f", name, t.DurationSeconds, durationClampMin, durationClampMax))
		}
	}
	checkThreshold("default threshold", snap.Thresholds.Default)
	for channel, t := range snap.Thresholds.Channels {
		checkThreshold("channel "+channel, t)
	}

	if snap.BFR.RangeMin >= snap.BFR.RangeMax {
		violations = append(violations, fmt.Sprintf("bfr range %.3f..%.3f inverted", snap.BFR.RangeMin, snap.BFR.RangeMax))
	}

	wantPct := 0.0
	if snap.BFR.AOPMeasured > 0 {
		wantPct = snap.BFR.AppliedPressure / snap.BFR.AOPMeasured * PercentageMultiplier
	}
	if math.Abs(snap.BFR.PercentAOP-wantPct) > derivedTolerance {
		violations = append(violations, fmt.Sprintf("bfr percentage %.6f, derived %.6f", snap.BFR.PercentAOP, wantPct))
	}
	wantCompliant := wantPct >= snap.BFR.RangeMin && wantPct <= snap.BFR.RangeMax
	if snap.BFR.Compliant != wantCompliant {
		violations = append(violations, fmt.Sprintf("bfr compliant %v, derived %v", snap.BFR.Compliant, wantCompliant))
	}

	if snap.Game.MaxScore <= snap.Game.MinScore {
		violations = append(violations, fmt.Sprintf("game bounds %.3f..%.3f inverted", snap.Game.MinScore, snap.Game.MaxScore))
	}
	if snap.Game.Algorithm != "linear" {
		violations = append(violations, fmt.Sprintf("game algorithm %q", snap.Game.Algorithm))
	}

	return violations
}
