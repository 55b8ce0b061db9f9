// Package repository defines the session snapshot store interface and errors.
package repository

import "time"

// Option applies a configuration option to the SQLiteStore.
type Option func(*SQLiteStore)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *SQLiteStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// WithBusyTimeout sets how long SQLite waits on a locked database before
// giving up on a statement.
func WithBusyTimeout(timeout time.Duration) Option {
	return func(s *SQLiteStore) {
		if timeout > 0 {
			s.busyTimeout = timeout
		}
	}
}
