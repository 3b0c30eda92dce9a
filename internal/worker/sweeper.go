package worker

import (
	"context"
	"log/slog"
	"time"
)

// TaskSweepStaleUploads is the name of the stale upload sweeper.
const TaskSweepStaleUploads = "sweep_stale_uploads"

const (
	defaultSweepBatch = 100
	maxSweepBatches   = 50
)

// UploadSweeper deletes chart uploads created before cutoff.
// service.ChartService satisfies it.
type UploadSweeper interface {
	SweepStale(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// StaleUploadSweeper removes uploaded charts that were never analyzed.
type StaleUploadSweeper struct {
	charts   UploadSweeper
	ttl      time.Duration
	interval time.Duration
	batch    int
	now      func() time.Time
	logger   *slog.Logger
}

// NewStaleUploadSweeper deletes uploads older than ttl every interval.
func NewStaleUploadSweeper(charts UploadSweeper, ttl, interval time.Duration, logger *slog.Logger) *StaleUploadSweeper {
	return &StaleUploadSweeper{
		charts:   charts,
		ttl:      ttl,
		interval: interval,
		batch:    defaultSweepBatch,
		now:      time.Now,
		logger:   logger,
	}
}

func (s *StaleUploadSweeper) Name() string { return TaskSweepStaleUploads }

func (s *StaleUploadSweeper) Interval() time.Duration { return s.interval }

// Run deletes stale uploads in batches until a short batch signals the
// backlog is drained.
func (s *StaleUploadSweeper) Run(ctx context.Context) error {
	cutoff := s.now().Add(-s.ttl)

	total := 0
	for i := 0; i < maxSweepBatches; i++ {
		n, err := s.charts.SweepStale(ctx, cutoff, s.batch)
		total += n
		if err != nil {
			return err
		}
		if n < s.batch {
			break
		}
	}

	if total > 0 {
		s.logger.Info("Swept stale uploads", "count", total, "cutoff", cutoff)
	}
	return nil
}

var _ Task = (*StaleUploadSweeper)(nil)
