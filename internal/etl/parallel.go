package etl

import (
	"context"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/mobility-cli/internal/model"
)

// chunkResult carries one worker's validated chunk and partial tallies.
// Order within a chunk is preserved; order across chunks is not.
type chunkResult struct {
	accepted []model.Trip
	reasons  map[model.RejectReason]int
	seen     int
}

// RunParallel behaves like Run but validates chunks of raw trips on
// `workers` goroutines. Per-chunk tallies are merged by summing, accepted
// trips are concatenated by a single collector, and only that collector
// issues writes, so the sink never sees overlapping WriteBatch calls.
func (p *Pipeline) RunParallel(ctx context.Context, src Source, sink BatchWriter, batchSize, workers int) (*Report, error) {
	if workers <= 1 {
		return p.Run(ctx, src, sink, batchSize)
	}
	if batchSize < 1 {
		return nil, eris.Errorf("etl: batch size must be positive, got %d", batchSize)
	}

	report := newReport()
	start := time.Now()
	defer func() { report.Duration = time.Since(start) }()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	chunks := make(chan []model.RawTrip, workers)
	results := make(chan chunkResult, workers)

	g, gctx := errgroup.WithContext(runCtx)

	// Reader: single pass over the source, handing out fixed-size chunks.
	g.Go(func() error {
		defer close(chunks)
		for {
			chunk, err := readChunk(src, batchSize)
			if len(chunk) > 0 {
				select {
				case chunks <- chunk:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return eris.Wrap(err, "etl: read source")
			}
		}
	})

	// Validation workers.
	workerGroup, workerCtx := errgroup.WithContext(gctx)
	for range workers {
		workerGroup.Go(func() error {
			for chunk := range chunks {
				res := p.validateChunk(chunk)
				select {
				case results <- res:
				case <-workerCtx.Done():
					return workerCtx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		_ = workerGroup.Wait()
		close(results)
	}()

	// Single writer: merge tallies and flush accepted trips in batchSize
	// groups. On a write failure, cancel producers but keep draining so the
	// final tallies stay complete.
	var writeErr error
	var pending []model.Trip
	flush := func(trips []model.Trip) {
		if writeErr != nil {
			return
		}
		if err := sink.WriteBatch(ctx, trips); err != nil {
			writeErr = eris.Wrapf(err, "etl: write batch %d", report.Batches+1)
			cancel()
			return
		}
		report.Batches++
		report.Committed += len(trips)
	}
	for res := range results {
		report.Seen += res.seen
		report.Accepted += len(res.accepted)
		for reason, n := range res.reasons {
			report.Rejected += n
			report.Reasons[reason] += n
		}
		pending = append(pending, res.accepted...)
		for len(pending) >= batchSize {
			flush(pending[:batchSize])
			pending = pending[batchSize:]
		}
	}
	if len(pending) > 0 && writeErr == nil {
		flush(pending)
	}

	readErr := g.Wait()
	if writeErr != nil {
		return report, writeErr
	}
	if readErr != nil && !eris.Is(readErr, context.Canceled) {
		return report, readErr
	}

	zap.L().Info("etl: parallel run complete",
		zap.String("run_id", report.RunID),
		zap.Int("workers", workers),
		zap.Int("seen", report.Seen),
		zap.Int("accepted", report.Accepted),
		zap.Int("rejected", report.Rejected),
		zap.Int("batches", report.Batches),
	)
	return report, nil
}

// readChunk reads up to n raw trips from src. It returns io.EOF alongside
// whatever it read once the source is exhausted.
func readChunk(src Source, n int) ([]model.RawTrip, error) {
	chunk := make([]model.RawTrip, 0, n)
	for len(chunk) < n {
		raw, err := src.Next()
		if err != nil {
			return chunk, err
		}
		chunk = append(chunk, raw)
	}
	return chunk, nil
}

func (p *Pipeline) validateChunk(chunk []model.RawTrip) chunkResult {
	res := chunkResult{
		reasons: make(map[model.RejectReason]int),
		seen:    len(chunk),
	}
	for _, raw := range chunk {
		trip, rejection := p.validator.Validate(raw)
		if rejection != nil {
			res.reasons[rejection.Reason]++
			continue
		}
		res.accepted = append(res.accepted, *trip)
	}
	return res
}
