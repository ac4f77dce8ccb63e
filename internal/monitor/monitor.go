// Package monitor provides train.Monitor implementations: a structured log
// sink, a SQLite-backed run history and a terminal dashboard.
package monitor

import (
	"context"
	"log/slog"

	"github.com/born-ml/shardtrain/internal/train"
)

// Multi fans a report out to several monitors in order. Every monitor is
// called even if an earlier one fails; the first error is returned.
type Multi []train.Monitor

// OnEpoch implements train.Monitor.
func (m Multi) OnEpoch(ctx context.Context, report train.EpochReport) error {
	var first error
	for _, mon := range m {
		if mon == nil {
			continue
		}
		if err := mon.OnEpoch(ctx, report); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Log writes one structured record per epoch.
type Log struct {
	logger *slog.Logger
	level  slog.Level
}

// NewLog creates a log monitor. A nil logger means slog.Default().
func NewLog(logger *slog.Logger, level slog.Level) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger.With("component", "monitor"), level: level}
}

// OnEpoch implements train.Monitor.
func (l *Log) OnEpoch(ctx context.Context, r train.EpochReport) error {
	attrs := []slog.Attr{
		slog.Int("epoch", r.Epoch),
		slog.String("mode", string(r.Mode)),
		slog.Int("workers", r.Workers),
		slog.Float64("loss", r.Loss),
		slog.Int("steps", r.Steps),
		slog.Int("failed", r.FailedBatches),
		slog.Float64("lr", r.LR),
		slog.Duration("duration", r.Duration),
	}
	if r.Metrics != nil {
		attrs = append(attrs,
			slog.Float64("eval_loss", r.Metrics.Loss),
			slog.Float64("eval_accuracy", r.Metrics.Accuracy))
	}
	l.logger.LogAttrs(ctx, l.level, "epoch", attrs...)
	return nil
}
