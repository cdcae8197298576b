package pipeline

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/galerija/imagepipe/pkg/logger"
)

const defaultQueueSize = 256

// Worker is a bounded pool that runs pipeline tasks submitted by the
// HTTP surface and the startup sweep. Every task produces a RunResult
// that is drained through OnResult, so no outcome disappears into a
// dangling goroutine.
type Worker struct {
	runner *Runner
	tasks  chan Task
	wg     sync.WaitGroup
	log    zerolog.Logger

	// OnResult observes every finished run. Set before Start. The
	// default drain logs and updates metrics.
	OnResult func(RunResult)
}

func NewWorker(runner *Runner) *Worker {
	return &Worker{
		runner: runner,
		tasks:  make(chan Task, defaultQueueSize),
		log:    logger.Component("worker"),
	}
}

// Start launches count workers that process tasks until Stop is called
// or ctx is cancelled.
func (w *Worker) Start(ctx context.Context, count int) {
	if count < 1 {
		count = 1
	}
	if w.OnResult == nil {
		w.OnResult = w.drain
	}
	for i := 0; i < count; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case task, ok := <-w.tasks:
					if !ok {
						return
					}
					w.OnResult(w.runner.Run(ctx, task))
				}
			}
		}()
	}
}

// Submit queues a task without blocking the caller. When the queue is
// full the task is dropped and reported; the object stays unprocessed
// until the next event or sweep reaches it.
func (w *Worker) Submit(task Task) bool {
	select {
	case w.tasks <- task:
		return true
	default:
		w.log.Warn().Str("bucket", task.Bucket).Str("key", task.Key).Msg("task queue full, dropping")
		return false
	}
}

// Process runs one task synchronously on the caller's goroutine, used by
// the startup sweep which manages its own batching.
func (w *Worker) Process(ctx context.Context, task Task) RunResult {
	res := w.runner.Run(ctx, task)
	if w.OnResult != nil {
		w.OnResult(res)
	}
	return res
}

// Runner exposes the underlying runner for guard checks.
func (w *Worker) Runner() *Runner { return w.runner }

// Stop closes the queue and waits for in-flight tasks.
func (w *Worker) Stop() {
	close(w.tasks)
	w.wg.Wait()
}

func (w *Worker) drain(res RunResult) {
	switch {
	case res.Skipped():
		objectsSkipped.Inc()
		w.log.Debug().Str("key", res.Key).Str("reason", res.SkipReason).Msg("object skipped")
	case res.Err != nil:
		objectsFailed.Inc()
		w.log.Error().Err(res.Err).Str("key", res.Key).Str("state", string(res.State)).Dur("took", res.Duration).Msg("pipeline run failed")
	default:
		objectsProcessed.Inc()
		w.log.Info().Str("key", res.Key).Str("catalog_key", res.CatalogKey).Int("profiles", len(res.Profiles)).Dur("took", res.Duration).Msg("pipeline run completed")
	}
}
