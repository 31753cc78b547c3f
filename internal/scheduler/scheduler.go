// Package scheduler runs the periodic KPI snapshot job.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/skilltrack/learning-service/internal/services"
)

const snapshotTimeout = 5 * time.Minute

type Scheduler struct {
	cron   *cron.Cron
	kpis   services.KpiService
	logger *slog.Logger
}

func New(kpis services.KpiService, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		kpis:   kpis,
		logger: logger,
	}
}

// Start registers the snapshot job under the given cron spec and starts
// the scheduler in the background.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.runSnapshot); err != nil {
		return fmt.Errorf("invalid kpi schedule %q: %w", spec, err)
	}
	s.cron.Start()
	s.logger.Info("KPI scheduler started", "schedule", spec)
	return nil
}

// Stop halts scheduling and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("KPI scheduler stopped")
}

func (s *Scheduler) runSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()

	if err := s.kpis.SnapshotAll(ctx, time.Now()); err != nil {
		s.logger.Error("KPI snapshot run failed", "error", err)
	}
}
