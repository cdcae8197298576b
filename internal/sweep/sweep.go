// Package sweep processes the objects that were already in the bucket
// before the service started listening for events.
package sweep

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/galerija/imagepipe/internal/config"
	"github.com/galerija/imagepipe/internal/pipeline"
	"github.com/galerija/imagepipe/internal/store"
	"github.com/galerija/imagepipe/pkg/logger"
)

type Sweeper struct {
	store  store.Store
	worker *pipeline.Worker
	bucket string
	cfg    config.Sweep
	log    zerolog.Logger
}

func New(st store.Store, worker *pipeline.Worker, bucket string, cfg config.Sweep) *Sweeper {
	return &Sweeper{
		store:  st,
		worker: worker,
		bucket: bucket,
		cfg:    cfg,
		log:    logger.Component("sweep"),
	}
}

// Run waits for the settling delay, then pushes every eligible existing
// object through the pipeline in bounded batches: each batch completes
// before the next starts, the only backpressure the sweep needs. Errors
// are per-object and never abort the sweep.
func (s *Sweeper) Run(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(s.cfg.Delay):
	}

	if err := s.store.EnsureBucket(ctx, s.bucket); err != nil {
		s.log.Error().Err(err).Str("bucket", s.bucket).Msg("bucket unavailable, sweep aborted")
		return
	}

	objects, err := s.store.List(ctx, s.bucket, "")
	if err != nil {
		s.log.Error().Err(err).Str("bucket", s.bucket).Msg("listing failed, sweep aborted")
		return
	}
	s.log.Info().Int("objects", len(objects)).Str("bucket", s.bucket).Msg("sweep starting")

	runner := s.worker.Runner()
	var batch []string
	queued := 0

	flush := func() {
		if len(batch) == 0 {
			return
		}
		g, gctx := errgroup.WithContext(ctx)
		for _, key := range batch {
			key := key
			g.Go(func() error {
				res := s.worker.Process(gctx, pipeline.Task{Bucket: s.bucket, Key: key})
				if res.Err != nil {
					s.log.Error().Err(res.Err).Str("key", key).Msg("sweep run failed")
				}
				return nil
			})
		}
		_ = g.Wait()
		batch = batch[:0]
	}

	for _, obj := range objects {
		if ctx.Err() != nil {
			return
		}
		if reason := runner.SkipReason(obj.Key); reason != "" {
			continue
		}
		batch = append(batch, obj.Key)
		queued++
		if len(batch) >= s.cfg.BatchSize {
			flush()
		}
	}
	flush()

	s.log.Info().Int("queued", queued).Msg("sweep finished")
}
