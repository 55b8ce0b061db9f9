package seeder

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"

	"github.com/google/uuid"

	"github.com/tonuslab/tonus/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	mutationKindCount  = 8
)

// replayEvery controls how often a mutation is repeated verbatim (same
// updateId), exercising the engine's idempotency window.
const replayEvery = 25

// Constants for mutation kind cases. Weight changes get two slots since the
// sliders are the hot path on a real dashboard.
const (
	caseTopWeight    = 0
	caseApplyPreset  = 1
	caseSubWeight    = 2
	caseSubFocus     = 3
	caseThreshold    = 4
	caseBFR          = 5
	caseGame         = 6
	caseTopWeightTwo = 7
)

// Constants for generated value ranges. The threshold and game-weight probes
// extend past the engine's clamp windows so clamping gets exercised.
const (
	sliderMax           = 100.0
	gameWeightSliderMax = 60.0
	mvcProbeMax         = 120.0
	durationProbeMin    = 0.2
	durationProbeSpan   = 11.0
	aopBaseMmHg         = 120.0
	aopSpanMmHg         = 100.0
	appliedBaseMmHg     = 40.0
	appliedSpanMmHg     = 160.0
	rangeMinBasePct     = 30.0
	rangeMinSpanPct     = 20.0
	rangeMaxBasePct     = 60.0
	rangeMaxSpanPct     = 30.0
	applicationBaseMin  = 5.0
	applicationSpanMin  = 15.0
	gameMinSpan         = 20.0
	gameMaxBase         = 60.0
	gameMaxSpan         = 40.0
)

// Catalog of mutation targets.
var (
	weightComponents = []string{"compliance", "symmetry", "effort", "gameScore"}
	subComponents    = []string{"completion", "intensity", "duration"}
	presetNames      = []string{"default", "quality_focused", "experimental_with_game"}
	focusNames       = []string{"completion_focus", "intensity_focus", "duration_focus", "equal"}
	channelNames     = []string{"emg_left", "emg_right", "quad_left", "quad_right"}
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// pick returns a random element of options.
func pick(options []string) string {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(options))))
	return options[n.Int64()]
}

// generateMutations creates the full mutation plan, spreading mutations
// evenly across the given sessions.
func generateMutations(ctx context.Context, config *Config, sessionIDs []string, stats *Stats) ([]Mutation, error) {
	total := len(sessionIDs) * config.MutationsPerSession
	logger.Get().Info(ctx, "generating mutations",
		logger.Int("sessions", len(sessionIDs)),
		logger.Int("perSession", config.MutationsPerSession),
		logger.Int("total", total))

	mutations := make([]Mutation, total)

	type mutationResult struct {
		index    int
		mutation Mutation
		err      error
	}

	resultChan := make(chan mutationResult, total)

	// Use worker pool for mutation generation
	workerCount := minInt(config.Workers, total)
	if workerCount < 1 {
		workerCount = 1
	}
	perWorker := total / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * perWorker
		end := start + perWorker
		if worker == workerCount-1 {
			end = total // Last worker gets the remainder
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- mutationResult{index: i, err: ctx.Err()}
					return
				default:
					sessionID := sessionIDs[i/config.MutationsPerSession]
					resultChan <- mutationResult{index: i, mutation: buildMutation(sessionID)}
				}
			}
		}(start, end)
	}

	// Collect results
	for i := 0; i < total; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during mutation generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate mutation %d: %w", result.index, result.err)
			}
			mutations[result.index] = result.mutation
		}
	}

	replayed := 0
	for i := replayEvery; i < len(mutations); i += replayEvery {
		mutations[i] = mutations[i-1]
		replayed++
	}

	stats.MutationsGenerated = len(mutations)
	logger.Get().Info(ctx, "generated mutations successfully",
		logger.Int("count", len(mutations)),
		logger.Int("replayed", replayed))

	return mutations, nil
}

// buildMutation creates a single random mutation for the given session.
func buildMutation(sessionID string) Mutation {
	kindCase, _ := rand.Int(rand.Reader, big.NewInt(mutationKindCount))
	updateID := uuid.New().String()

	switch kindCase.Int64() {
	case caseApplyPreset:
		return newMutation(sessionID, "applyPreset", "/weights/preset", map[string]interface{}{
			"preset":   pick(presetNames),
			"updateId": updateID,
		})
	case caseSubWeight:
		return newMutation(sessionID, "setSubWeight", "/compliance-weights", map[string]interface{}{
			"component": pick(subComponents),
			"value":     getRandomFloat() * sliderMax,
			"updateId":  updateID,
		})
	case caseSubFocus:
		return newMutation(sessionID, "applyFocus", "/compliance-weights/preset", map[string]interface{}{
			"focus":    pick(focusNames),
			"updateId": updateID,
		})
	case caseThreshold:
		return newMutation(sessionID, "updateThreshold", "/thresholds", map[string]interface{}{
			"channel":                  pick(channelNames),
			"mvcThresholdPercentage":   getRandomFloat() * mvcProbeMax,
			"durationThresholdSeconds": durationProbeMin + getRandomFloat()*durationProbeSpan,
			"updateId":                 updateID,
		})
	case caseBFR:
		return newMutation(sessionID, "updateBFR", "/bfr", map[string]interface{}{
			"aopMeasured":            aopBaseMmHg + getRandomFloat()*aopSpanMmHg,
			"appliedPressure":        appliedBaseMmHg + getRandomFloat()*appliedSpanMmHg,
			"therapeuticRangeMin":    rangeMinBasePct + getRandomFloat()*rangeMinSpanPct,
			"therapeuticRangeMax":    rangeMaxBasePct + getRandomFloat()*rangeMaxSpanPct,
			"applicationTimeMinutes": applicationBaseMin + getRandomFloat()*applicationSpanMin,
			"updateId":               updateID,
		})
	case caseGame:
		return newMutation(sessionID, "updateGame", "/game-normalization", map[string]interface{}{
			"algorithm": "linear",
			"minScore":  getRandomFloat() * gameMinSpan,
			"maxScore":  gameMaxBase + getRandomFloat()*gameMaxSpan,
			"updateId":  updateID,
		})
	default: // caseTopWeight, caseTopWeightTwo
		component := pick(weightComponents)
		value := getRandomFloat() * sliderMax
		if component == "gameScore" {
			value = getRandomFloat() * gameWeightSliderMax
		}
		return newMutation(sessionID, "setWeight", "/weights", map[string]interface{}{
			"component": component,
			"value":     value,
			"updateId":  updateID,
		})
	}
}

// newMutation assembles the wire form of one mutation.
func newMutation(sessionID, kind, subpath string, body map[string]interface{}) Mutation {
	data, _ := json.Marshal(body)
	return Mutation{
		SessionID: sessionID,
		Kind:      kind,
		Method:    http.MethodPost,
		Path:      "/sessions/" + sessionID + subpath,
		Body:      data,
	}
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
