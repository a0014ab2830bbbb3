// Package jobs runs periodic maintenance on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// PruneSchedule removes dead sessions once an hour.
const PruneSchedule = "@hourly"

type SessionPruner interface {
	PruneSessions(ctx context.Context, now time.Time) (int64, error)
}

type Scheduler struct {
	c   *cron.Cron
	log *zap.Logger
}

func New(log *zap.Logger) *Scheduler {
	return &Scheduler{c: cron.New(), log: log.Named("jobs")}
}

// PruneSessions schedules deletion of expired and revoked sessions.
func (s *Scheduler) PruneSessions(spec string, p SessionPruner, timeout time.Duration) error {
	job := pruneJob{p: p, timeout: timeout, log: s.log}
	if _, err := s.c.AddJob(spec, job); err != nil {
		return fmt.Errorf("schedule session pruning %q: %w", spec, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.c.Start()
	s.log.Info("scheduler started", zap.Int("jobs", len(s.c.Entries())))
}

// Stop halts scheduling and waits for running jobs, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.c.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out")
	}
}

type pruneJob struct {
	p       SessionPruner
	timeout time.Duration
	log     *zap.Logger
}

func (j pruneJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	n, err := j.p.PruneSessions(ctx, time.Now())
	if err != nil {
		j.log.Error("prune sessions", zap.Error(err))
		return
	}
	j.log.Info("pruned sessions", zap.Int64("removed", n))
}
