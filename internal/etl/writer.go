package etl

import (
	"context"

	"github.com/sells-group/mobility-cli/internal/model"
)

// multiWriter fans each batch out to several sinks in order. The first
// failure aborts the batch; earlier sinks in the list may already have
// committed it.
type multiWriter struct {
	sinks []BatchWriter
}

// MultiWriter combines sinks into one BatchWriter. With zero or one sink it
// degenerates to a no-op or the sink itself.
func MultiWriter(sinks ...BatchWriter) BatchWriter {
	if len(sinks) == 1 {
		return sinks[0]
	}
	return &multiWriter{sinks: sinks}
}

func (m *multiWriter) WriteBatch(ctx context.Context, trips []model.Trip) error {
	for _, s := range m.sinks {
		if err := s.WriteBatch(ctx, trips); err != nil {
			return err
		}
	}
	return nil
}

// DiscardWriter accepts and drops every batch. Used by dry runs that only
// need validation tallies.
type DiscardWriter struct{}

func (DiscardWriter) WriteBatch(context.Context, []model.Trip) error { return nil }
