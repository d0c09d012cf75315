// Package sink fans transformation results out to delivery destinations.
// Destinations are independent: one failing sink never blocks the others.
package sink

import (
	"context"
	"errors"
	"log/slog"

	"github.com/speedwagon-io/odse/internal/lib/logger/sl"
	"github.com/speedwagon-io/odse/internal/model"
)

// Sink delivers result envelopes to one destination.
type Sink interface {
	Name() string
	Publish(ctx context.Context, envelope *model.ResultEnvelope) error
	Close() error
}

// Fanout publishes to every configured sink in order.
type Fanout struct {
	log   *slog.Logger
	sinks []Sink
}

func NewFanout(log *slog.Logger, sinks ...Sink) *Fanout {
	return &Fanout{
		log:   log,
		sinks: sinks,
	}
}

// Publish delivers the envelope to every sink. Per-sink failures are logged
// and skipped; the envelope still reaches the remaining sinks.
func (f *Fanout) Publish(ctx context.Context, envelope *model.ResultEnvelope) {
	for _, s := range f.sinks {
		if err := s.Publish(ctx, envelope); err != nil {
			f.log.Error("failed to publish envelope",
				slog.String("sink", s.Name()),
				slog.String("envelope_id", envelope.ID),
				sl.Err(err),
			)
			continue
		}
		f.log.Debug("envelope published",
			slog.String("sink", s.Name()),
			slog.String("envelope_id", envelope.ID),
		)
	}
}

// Close shuts every sink down, returning the joined errors.
func (f *Fanout) Close() error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len reports how many sinks are configured.
func (f *Fanout) Len() int {
	return len(f.sinks)
}
