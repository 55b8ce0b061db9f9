// Package worker drains the save queue and writes snapshots to the store.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tonuslab/tonus/internal/domain/model"
	"github.com/tonuslab/tonus/pkg/logger"
	"github.com/tonuslab/tonus/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	metricsUpdateInterval   = 5 * time.Second
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// SaveRequest abstracts what workers read off the queue.
// Using the model.SaveRequest type for consistency.
type SaveRequest = model.SaveRequest

// Persister writes snapshots to durable storage.
type Persister interface {
	Save(ctx context.Context, req model.SaveRequest) error
}

// Queue defines how workers receive save requests.
type Queue interface {
	Dequeue(ctx context.Context) <-chan SaveRequest
}

// Worker drains save requests and persists them.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	// It will persist any request already in flight before stopping.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for persisting snapshots.
type InMemoryWorker struct {
	queue     Queue
	persister Persister
	name      string

	// busy is true while a save is in flight, read by the pool gauges.
	busy atomic.Bool

	// Shutdown control
	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, persister Persister, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     queue,
		persister: persister,
		name:      "worker", // default name
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"), // will be updated by options
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer func() {
		close(w.done)
	}()

	requestChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case req, ok := <-requestChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}

			if err := w.persist(ctx, req); err != nil {
				w.logger.Error(ctx, "error persisting save request", logger.Err(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// stop signals the run loop to exit. Safe to call more than once.
func (w *InMemoryWorker) stop() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

// persist handles a single save request.
func (w *InMemoryWorker) persist(ctx context.Context, req SaveRequest) error {
	w.busy.Store(true)
	defer w.busy.Store(false)

	start := time.Now()
	err := w.persister.Save(ctx, req)
	metrics.RecordPersistLatency(float64(time.Since(start).Milliseconds()))

	if err != nil {
		metrics.RecordPersistError()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "persist_error")
		metrics.RecordErrorByType("persist_error", "high")
		w.logger.Error(ctx, "snapshot persist failed",
			logger.String("sessionID", req.SessionID),
			logger.Int64("revision", req.Revision),
			logger.Err(err),
		)
		return fmt.Errorf("persist snapshot for session %s: %w", req.SessionID, err)
	}

	metrics.RecordSnapshotPersisted()
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers   []*InMemoryWorker
	queue     Queue
	persister Persister

	// Shutdown control
	shutdown  chan struct{}
	closeOnce sync.Once

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, queue Queue, persister Persister) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:   make([]*InMemoryWorker, workerCount),
		queue:     queue,
		persister: persister,
		shutdown:  make(chan struct{}),
		logger:    logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			persister,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	// Initialize worker metrics
	metrics.UpdateWorkerActiveCount(0)
	metrics.UpdateWorkerIdleCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}

	// Start metrics updater
	go p.startMetricsUpdater(ctx)
}

// startMetricsUpdater starts a background goroutine that updates worker metrics.
func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.updateMetrics()
		}
	}
}

// updateMetrics refreshes the busy and idle worker gauges.
func (p *Pool) updateMetrics() {
	busy := 0
	for _, worker := range p.workers {
		if worker.busy.Load() {
			busy++
		}
	}
	metrics.UpdateWorkerActiveCount(busy)
	metrics.UpdateWorkerIdleCount(len(p.workers) - busy)
}

// Stop stops all workers without draining the queue.
func (p *Pool) Stop() {
	p.closeOnce.Do(func() { close(p.shutdown) })

	for _, worker := range p.workers {
		worker.stop()
		select {
		case <-worker.done:
			// Worker finished
		case <-time.After(workerShutdownTimeout):
			// Worker timeout
		}
	}
}

// Shutdown gracefully shuts down the entire worker pool, draining whatever
// the queue still holds.
func (p *Pool) Shutdown(ctx context.Context) error {
	// First close the queue to stop new requests
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Err(err))
		}
	}

	p.closeOnce.Do(func() { close(p.shutdown) })

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
