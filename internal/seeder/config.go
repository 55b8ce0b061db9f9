package seeder

import (
	"encoding/json"
	"time"
)

// Config holds configuration for a seeding run
type Config struct {
	BaseURL             string        // Base URL of the service
	NumSessions         int           // Number of sessions to create
	MutationsPerSession int           // Number of mutations per session
	Workers             int           // Number of concurrent workers
	Timeout             time.Duration // HTTP request timeout
	OutputFile          string        // Output file for the mutation report
	LogFile             string        // Log file for run output
	Verify              bool          // Read sessions back and check invariants
	Verbose             bool          // Enable verbose logging
}

// Mutation is one generated configuration change, self-describing enough to
// be replayed straight from the report file.
type Mutation struct {
	SessionID string          `json:"sessionId"`
	Kind      string          `json:"kind"`
	Method    string          `json:"method"`
	Path      string          `json:"path"`
	Body      json.RawMessage `json:"body"`
}

// errorReply mirrors the API error envelope.
type errorReply struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Stats holds run statistics
type Stats struct {
	SessionsCreated     int
	MutationsGenerated  int
	MutationsSubmitted  int
	MutationsSuccessful int
	MutationsRejected   int
	MutationsFailed     int
	SessionsListed      int
	SessionsVerified    int
	InvariantFailures   int
	StartTime           time.Time
	EndTime             time.Time
	Duration            time.Duration
}
