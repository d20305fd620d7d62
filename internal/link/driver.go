package link

import (
	"context"
	"log/slog"

	"github.com/mattjoyce/intentd/internal/dispatch"
	"github.com/mattjoyce/intentd/internal/log"
)

// Pipeline handles one incoming link.
type Pipeline interface {
	HandleLink(ctx context.Context, raw string) (dispatch.Outcome, error)
}

// Driver re-runs the pipeline exactly once per distinct incoming link value.
// Consecutive identical values are ignored.
type Driver struct {
	source   Source
	pipeline Pipeline
	logger   *slog.Logger

	last string
}

// NewDriver creates a Driver.
func NewDriver(source Source, pipeline Pipeline, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = log.Get()
	}
	return &Driver{
		source:   source,
		pipeline: pipeline,
		logger:   logger.With("component", "link-driver"),
	}
}

// Run processes the current link and every later transition until ctx is
// done or the source closes. Pipeline errors are logged and never stop Run.
func (d *Driver) Run(ctx context.Context) error {
	ch, cancel := d.source.Subscribe()
	defer cancel()

	d.logger.Info("link driver started")
	d.observe(ctx, d.source.Current())

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("link driver stopping")
			return ctx.Err()
		case raw, ok := <-ch:
			if !ok {
				return nil
			}
			d.observe(ctx, raw)
		}
	}
}

func (d *Driver) observe(ctx context.Context, raw string) {
	if raw == d.last {
		return
	}
	d.last = raw
	if raw == "" {
		return
	}

	outcome, err := d.pipeline.HandleLink(ctx, raw)
	if err != nil {
		d.logger.Error("link pipeline failed",
			"link", log.TruncateLink(raw),
			"error", err,
		)
		return
	}
	d.logger.Debug("link processed", "outcome", string(outcome))
}
