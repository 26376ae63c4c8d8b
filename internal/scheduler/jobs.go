package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// Job is a sweep registered with the Manager.
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute(ctx context.Context)
}

// SweepJob runs one of the Sweeper's sweeps on a fixed interval.
type SweepJob struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context) (SweepResult, error)
	logger   *zap.Logger
}

// NewDueSoonJob creates the due-soon sweep job
func NewDueSoonJob(sweeper *Sweeper, interval time.Duration, logger *zap.Logger) *SweepJob {
	return &SweepJob{
		name:     "task_due_soon_sweep",
		interval: interval,
		run:      sweeper.RunDueSoonSweep,
		logger:   logger,
	}
}

// NewOverdueJob creates the overdue sweep job
func NewOverdueJob(sweeper *Sweeper, interval time.Duration, logger *zap.Logger) *SweepJob {
	return &SweepJob{
		name:     "task_overdue_sweep",
		interval: interval,
		run:      sweeper.RunOverdueSweep,
		logger:   logger,
	}
}

func (j *SweepJob) GetName() string {
	return j.name
}

func (j *SweepJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute runs the sweep once. Errors are logged; the next tick retries.
func (j *SweepJob) Execute(ctx context.Context) {
	if _, err := j.run(ctx); err != nil {
		j.logger.Error("Scheduled sweep failed", zap.String("job", j.name), zap.Error(err))
	}
}
