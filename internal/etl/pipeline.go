// Package etl runs the trip validation, enrichment, and load pipeline.
package etl

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/mobility-cli/internal/model"
	"github.com/sells-group/mobility-cli/internal/validate"
)

// Source produces a finite sequence of raw trips. Next returns io.EOF when
// the source is exhausted and any other error when iteration fails.
type Source interface {
	Next() (model.RawTrip, error)
}

// BatchWriter is the persistence sink for accepted trips. A batch either
// commits fully or fails as a unit; the pipeline never retries a failed
// write.
type BatchWriter interface {
	WriteBatch(ctx context.Context, trips []model.Trip) error
}

// Report summarizes one pipeline run. Given a deterministic input order the
// counts are deterministic, including across the parallel runner.
type Report struct {
	RunID     string                     `json:"run_id"`
	StartedAt time.Time                  `json:"started_at"`
	Seen      int                        `json:"seen"`
	Accepted  int                        `json:"accepted"`
	Rejected  int                        `json:"rejected"`
	Reasons   map[model.RejectReason]int `json:"reasons"`
	Batches   int                        `json:"batches"`
	Committed int                        `json:"committed"`
	Duration  time.Duration              `json:"duration"`
}

// Pipeline validates raw trips and loads accepted ones in batches.
type Pipeline struct {
	validator *validate.Validator
}

// New creates a Pipeline using the given validator.
func New(v *validate.Validator) *Pipeline {
	return &Pipeline{validator: v}
}

// Run makes a single lazy pass over src, validating each trip and flushing
// accepted trips to sink in batches of batchSize. Rejections are tallied by
// reason, never written. A sink or source failure ends the run; the returned
// report still carries the counts committed before the failure, so callers
// must treat partial commits as durable.
func (p *Pipeline) Run(ctx context.Context, src Source, sink BatchWriter, batchSize int) (*Report, error) {
	if batchSize < 1 {
		return nil, eris.Errorf("etl: batch size must be positive, got %d", batchSize)
	}

	report := newReport()
	start := time.Now()
	defer func() { report.Duration = time.Since(start) }()

	log := zap.L().With(zap.String("run_id", report.RunID))

	batch := make([]model.Trip, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := sink.WriteBatch(ctx, batch); err != nil {
			return eris.Wrapf(err, "etl: write batch %d", report.Batches+1)
		}
		report.Batches++
		report.Committed += len(batch)
		log.Debug("etl: batch flushed",
			zap.Int("batch", report.Batches),
			zap.Int("size", len(batch)),
		)
		batch = batch[:0]
		return nil
	}

	for {
		raw, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return report, eris.Wrap(err, "etl: read source")
		}

		report.Seen++
		trip, rejection := p.validator.Validate(raw)
		if rejection != nil {
			report.Rejected++
			report.Reasons[rejection.Reason]++
			continue
		}

		report.Accepted++
		batch = append(batch, *trip)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return report, err
			}
		}
	}

	if err := flush(); err != nil {
		return report, err
	}

	log.Info("etl: run complete",
		zap.Int("seen", report.Seen),
		zap.Int("accepted", report.Accepted),
		zap.Int("rejected", report.Rejected),
		zap.Int("batches", report.Batches),
	)
	return report, nil
}

func newReport() *Report {
	return &Report{
		RunID:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
		Reasons:   make(map[model.RejectReason]int),
	}
}
