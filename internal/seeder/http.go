package seeder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// progressEvery is how many submissions pass between progress lines.
const progressEvery = 500

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with a JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// marshalJSON marshals a struct to JSON
func marshalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// unmarshalJSON unmarshals JSON to a struct
func unmarshalJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(resp.Body)
}

// createSessions registers the requested number of sessions and returns the
// IDs the engine acknowledged.
func createSessions(ctx context.Context, config *Config, stats *Stats) ([]string, error) {
	log.Printf("🆕 Creating %d sessions with %d workers...", config.NumSessions, config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/sessions"

	var failed int64

	pending := make(chan string, config.Workers*WorkerChannelMultiplier)
	results := make(chan string, config.NumSessions)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for sessionID := range pending {
				select {
				case <-ctx.Done():
					return
				default:
				}

				body, err := marshalJSON(map[string]string{"sessionId": sessionID})
				if err != nil {
					atomic.AddInt64(&failed, 1)
					continue
				}

				resp, err := client.Post(ctx, url, body)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					continue
				}

				respBody, err := readResponseBody(resp)
				if err != nil || resp.StatusCode != StatusCreated {
					atomic.AddInt64(&failed, 1)
					continue
				}

				var snap struct {
					SessionID string `json:"sessionId"`
				}
				if err := unmarshalJSON(respBody, &snap); err != nil || snap.SessionID == "" {
					atomic.AddInt64(&failed, 1)
					continue
				}

				results <- snap.SessionID
			}
		}()
	}

	go func() {
		defer close(pending)
		for i := 0; i < config.NumSessions; i++ {
			select {
			case <-ctx.Done():
				return
			case pending <- "seed-" + uuid.New().String():
			}
		}
	}()

	wg.Wait()
	close(results)

	ids := make([]string, 0, config.NumSessions)
	for id := range results {
		ids = append(ids, id)
	}

	stats.SessionsCreated = len(ids)
	if len(ids) == 0 {
		return nil, fmt.Errorf("no sessions created (%d failures)", atomic.LoadInt64(&failed))
	}
	if n := atomic.LoadInt64(&failed); n > 0 {
		log.Printf("⚠️  %d session creations failed", n)
	}

	log.Printf("✅ Created %d sessions", len(ids))
	return ids, nil
}

// submitMutations plays the generated mutations against the engine using a
// worker pool.
func submitMutations(ctx context.Context, config *Config, mutations []Mutation, stats *Stats) error {
	log.Printf("📤 Submitting %d mutations with %d workers...", len(mutations), config.Workers)

	client := newHTTPClient(config.Timeout)

	// Counters for statistics
	var (
		successful int64
		rejected   int64
		failed     int64
		submitted  int64
	)

	mutationChan := make(chan Mutation, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for mutation := range mutationChan {
				select {
				case <-ctx.Done():
					return
				default:
					result := submitSingleMutation(ctx, client, config.BaseURL, mutation)

					total := atomic.AddInt64(&submitted, 1)
					switch result {
					case "success":
						atomic.AddInt64(&successful, 1)
					case "rejected":
						atomic.AddInt64(&rejected, 1)
					case "failed":
						atomic.AddInt64(&failed, 1)
					}

					// Progress reporting
					if total%progressEvery == 0 {
						succ := atomic.LoadInt64(&successful)
						rej := atomic.LoadInt64(&rejected)
						fail := atomic.LoadInt64(&failed)

						if config.Verbose {
							log.Printf("📊 Progress: %d/%d submitted (success: %d, rejected: %d, failed: %d)",
								total, len(mutations), succ, rej, fail)
						} else {
							fmt.Printf("\r📤 Submitted: %d/%d (success: %d, rejected: %d, failed: %d)",
								total, len(mutations), succ, rej, fail)
						}
					}
				}
			}
		}()
	}

	// Send mutations to workers
	go func() {
		defer close(mutationChan)
		for _, mutation := range mutations {
			select {
			case <-ctx.Done():
				return
			case mutationChan <- mutation:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	// Final progress report
	if !config.Verbose {
		fmt.Println() // New line after progress indicator
	}

	stats.MutationsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.MutationsSuccessful = int(atomic.LoadInt64(&successful))
	stats.MutationsRejected = int(atomic.LoadInt64(&rejected))
	stats.MutationsFailed = int(atomic.LoadInt64(&failed))

	log.Printf(`✅ Mutation submission completed:
   Successful: %d
   Rejected: %d
   Failed: %d
`, stats.MutationsSuccessful, stats.MutationsRejected, stats.MutationsFailed)

	return nil
}

// submitSingleMutation submits one mutation and classifies the outcome.
func submitSingleMutation(ctx context.Context, client *HTTPClient, baseURL string, mutation Mutation) string {
	resp, err := client.Post(ctx, baseURL+mutation.Path, mutation.Body)
	if err != nil {
		return "failed"
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return "failed"
	}

	switch {
	case resp.StatusCode == StatusOK:
		return "success"
	case resp.StatusCode >= http.StatusBadRequest && resp.StatusCode < http.StatusInternalServerError:
		// The engine replied with a structured rejection
		var reply errorReply
		if err := unmarshalJSON(body, &reply); err == nil && reply.Code != "" {
			return "rejected"
		}
		return "rejected"
	default:
		return "failed"
	}
}
