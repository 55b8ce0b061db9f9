package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
	worker "github.com/tonuslab/tonus/internal/adapters/mq/worker"
	model "github.com/tonuslab/tonus/internal/domain/model"
	session "github.com/tonuslab/tonus/internal/domain/session"
	logging "github.com/tonuslab/tonus/pkg/logger"
)

// Mock implementations for testing.
type mockQueue struct {
	requestChan chan worker.SaveRequest
	closeError  error
}

func newMockQueue() *mockQueue {
	return &mockQueue{
		requestChan: make(chan worker.SaveRequest, 10),
	}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan worker.SaveRequest {
	return mq.requestChan
}

func (mq *mockQueue) Close() error {
	close(mq.requestChan)
	return mq.closeError
}

func (mq *mockQueue) addRequest(req worker.SaveRequest) {
	mq.requestChan <- req
}

type mockPersister struct {
	saves  map[string]model.SaveRequest
	errors map[string]error
	mu     sync.RWMutex
}

func newMockPersister() *mockPersister {
	return &mockPersister{
		saves:  make(map[string]model.SaveRequest),
		errors: make(map[string]error),
	}
}

func (mp *mockPersister) Save(ctx context.Context, req model.SaveRequest) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if err, exists := mp.errors[req.SessionID]; exists {
		return err
	}

	mp.saves[req.SessionID] = req
	return nil
}

func (mp *mockPersister) setError(sessionID string, err error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.errors[sessionID] = err
}

func (mp *mockPersister) getSave(sessionID string) (model.SaveRequest, bool) {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	req, exists := mp.saves[sessionID]
	return req, exists
}

func saveReq(updateID, sessionID string, revision int64) model.SaveRequest {
	now := time.Now()
	return model.SaveRequest{
		UpdateID:  updateID,
		SessionID: sessionID,
		Revision:  revision,
		TakenAt:   now,
		Snapshot:  session.Defaults().Snapshot(sessionID, revision, now),
	}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a new InMemoryWorker", t, func() {
		// Initialize logging for tests
		_ = logging.Init()

		queue := newMockQueue()
		persister := newMockPersister()

		convey.Convey("When creating a worker with default options", func() {
			worker := worker.NewInMemoryWorker(queue, persister)

			convey.Convey("Then it should be created successfully", func() {
				convey.So(worker, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When creating a worker with custom options", func() {
			worker := worker.NewInMemoryWorker(
				queue, persister,
				worker.WithName("test-worker"),
			)

			convey.Convey("Then it should be created successfully", func() {
				convey.So(worker, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When running a worker", func() {
			worker := worker.NewInMemoryWorker(queue, persister)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			// Start worker in goroutine
			go worker.Run(ctx)

			// Give worker time to start
			time.Sleep(10 * time.Millisecond)

			convey.Convey("And when processing save requests", func() {
				queue.addRequest(saveReq("update-1", "session-1", 3))

				// Give worker time to process
				time.Sleep(50 * time.Millisecond)

				convey.Convey("Then it should persist the snapshot", func() {
					saved, exists := persister.getSave("session-1")
					convey.So(exists, convey.ShouldBeTrue)
					convey.So(saved.Revision, convey.ShouldEqual, 3)
					convey.So(saved.UpdateID, convey.ShouldEqual, "update-1")
				})
			})

			convey.Convey("And when persisting fails", func() {
				persister.setError("session-2", errors.New("persist error"))

				queue.addRequest(saveReq("update-2", "session-2", 1))

				// Give worker time to process
				time.Sleep(50 * time.Millisecond)

				convey.Convey("Then nothing should be recorded for the session", func() {
					_, exists := persister.getSave("session-2")
					convey.So(exists, convey.ShouldBeFalse)
				})
			})

			convey.Convey("And when shutting down", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer shutdownCancel()

				err := worker.Shutdown(shutdownCtx)

				convey.Convey("Then it should shutdown gracefully", func() {
					convey.So(err, convey.ShouldBeNil)
				})
			})
		})

		convey.Convey("When context is cancelled", func() {
			worker := worker.NewInMemoryWorker(queue, persister)
			ctx, cancel := context.WithCancel(context.Background())

			// Start worker in goroutine
			go worker.Run(ctx)

			// Give worker time to start
			time.Sleep(10 * time.Millisecond)

			// Cancel context
			cancel()

			// Give worker time to stop
			time.Sleep(50 * time.Millisecond)

			convey.Convey("Then worker should already be stopped", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
				defer shutdownCancel()

				convey.So(worker.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a new WorkerPool", t, func() {
		// Initialize logging for tests
		_ = logging.Init()

		queue := newMockQueue()
		persister := newMockPersister()

		convey.Convey("When creating a worker pool with default count", func() {
			pool := worker.NewPool(0, queue, persister)

			convey.Convey("Then it should be created successfully", func() {
				convey.So(pool, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When creating a worker pool with custom count", func() {
			workerCount := 3
			pool := worker.NewPool(workerCount, queue, persister)

			convey.Convey("Then it should be created successfully", func() {
				convey.So(pool, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When starting a worker pool", func() {
			pool := worker.NewPool(2, queue, persister)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			pool.Start(ctx)

			// Give workers time to start
			time.Sleep(20 * time.Millisecond)

			convey.Convey("And when processing multiple save requests", func() {
				requests := []model.SaveRequest{
					saveReq("update-1", "session-1", 1),
					saveReq("update-2", "session-2", 2),
					saveReq("update-3", "session-3", 3),
				}

				for _, req := range requests {
					queue.addRequest(req)
				}

				// Give workers time to process
				time.Sleep(100 * time.Millisecond)

				convey.Convey("Then all snapshots should be persisted", func() {
					for _, req := range requests {
						saved, exists := persister.getSave(req.SessionID)
						convey.So(exists, convey.ShouldBeTrue)
						convey.So(saved.Revision, convey.ShouldEqual, req.Revision)
					}
				})
			})

			convey.Convey("And when shutting down", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
				defer shutdownCancel()

				err := pool.Shutdown(shutdownCtx)

				convey.Convey("Then it should shutdown gracefully", func() {
					convey.So(err, convey.ShouldBeNil)
				})
			})
		})

		convey.Convey("When stopping a worker pool", func() {
			pool := worker.NewPool(2, queue, persister)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			pool.Start(ctx)

			// Give workers time to start
			time.Sleep(20 * time.Millisecond)

			pool.Stop()

			convey.Convey("Then a later shutdown should return immediately", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
				defer shutdownCancel()

				convey.So(pool.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})
	})
}

func TestWorkerOptions(t *testing.T) {
	convey.Convey("Given worker options", t, func() {
		_ = logging.Init()

		convey.Convey("When using WithName", func() {
			convey.Convey("Then it should set the worker name", func() {
				queue := newMockQueue()
				persister := newMockPersister()
				worker := worker.NewInMemoryWorker(queue, persister, worker.WithName("test-worker"))
				convey.So(worker, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When using WithLogger", func() {
			convey.Convey("Then it should accept a custom logger", func() {
				queue := newMockQueue()
				persister := newMockPersister()
				worker := worker.NewInMemoryWorker(queue, persister, worker.WithLogger(logging.Named("custom")))
				convey.So(worker, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestWorkerConcurrency(t *testing.T) {
	convey.Convey("Given a worker pool with multiple workers", t, func() {
		// Initialize logging for tests
		_ = logging.Init()

		queue := newMockQueue()
		persister := newMockPersister()

		pool := worker.NewPool(4, queue, persister)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		pool.Start(ctx)

		// Give workers time to start
		time.Sleep(20 * time.Millisecond)

		convey.Convey("When processing many concurrent save requests", func() {
			const requestCount = 100
			var wg sync.WaitGroup

			// Start multiple goroutines adding requests
			for i := 0; i < 5; i++ {
				wg.Add(1)
				go func(producerID int) {
					defer wg.Done()
					for j := 0; j < requestCount/5; j++ {
						updateID := fmt.Sprintf("update-%d-%d", producerID, j)
						sessionID := fmt.Sprintf("session-%d-%d", producerID, j)
						queue.addRequest(saveReq(updateID, sessionID, int64(j+1)))
					}
				}(i)
			}

			// Wait for all requests to be added
			wg.Wait()

			// Give workers time to process
			time.Sleep(200 * time.Millisecond)

			convey.Convey("Then all snapshots should be persisted", func() {
				persistedCount := 0
				for i := 0; i < 5; i++ {
					for j := 0; j < requestCount/5; j++ {
						sessionID := fmt.Sprintf("session-%d-%d", i, j)
						if _, exists := persister.getSave(sessionID); exists {
							persistedCount++
						}
					}
				}
				convey.So(persistedCount, convey.ShouldEqual, requestCount)
			})
		})
	})
}

func TestWorkerErrorHandling(t *testing.T) {
	convey.Convey("Given a worker with error conditions", t, func() {
		// Initialize logging for tests
		_ = logging.Init()

		queue := newMockQueue()
		persister := newMockPersister()

		worker := worker.NewInMemoryWorker(queue, persister)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Start worker in goroutine
		go worker.Run(ctx)

		// Give worker time to start
		time.Sleep(10 * time.Millisecond)

		convey.Convey("When persisting consistently fails", func() {
			persister.setError("session-error", errors.New("persistent store error"))

			queue.addRequest(saveReq("update-error", "session-error", 1))

			// Give worker time to process
			time.Sleep(50 * time.Millisecond)

			convey.Convey("Then the worker should keep draining the queue", func() {
				queue.addRequest(saveReq("update-ok", "session-ok", 1))

				time.Sleep(50 * time.Millisecond)

				_, failed := persister.getSave("session-error")
				_, persisted := persister.getSave("session-ok")
				convey.So(failed, convey.ShouldBeFalse)
				convey.So(persisted, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When queue channel is closed", func() {
			// Close the queue
			_ = queue.Close()

			// Give worker time to detect closure
			time.Sleep(50 * time.Millisecond)

			convey.Convey("Then worker should stop", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
				defer shutdownCancel()

				convey.So(worker.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})
	})
}
