package scheduler

import (
	"fmt"

	"github.com/go-co-op/gocron/v2"
	"github.com/yukikurage/project-lifecycle-api/internal/config"
	"go.uber.org/zap"
)

// Manager owns the gocron scheduler that drives the sweeps.
type Manager struct {
	scheduler gocron.Scheduler
	jobs      []Job
	logger    *zap.Logger
}

// NewManager creates a Manager with the due-soon and overdue jobs.
func NewManager(sweeper *Sweeper, cfg config.SchedulerConfig, logger *zap.Logger) (*Manager, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Manager{
		scheduler: s,
		jobs: []Job{
			NewDueSoonJob(sweeper, cfg.DueSoonInterval, logger),
			NewOverdueJob(sweeper, cfg.OverdueInterval, logger),
		},
		logger: logger,
	}, nil
}

// Start registers every job and starts the scheduler. Each job runs once
// immediately and then on its interval, never overlapping itself.
func (m *Manager) Start() error {
	for _, job := range m.jobs {
		if err := m.register(job); err != nil {
			return err
		}
	}

	m.scheduler.Start()
	m.logger.Info("Scheduler started", zap.Int("jobs", len(m.jobs)))
	return nil
}

func (m *Manager) register(job Job) error {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to register job %s: %w", job.GetName(), err)
	}
	return nil
}

// Jobs returns the names of the registered jobs.
func (m *Manager) Jobs() []string {
	names := make([]string, 0, len(m.jobs))
	for _, job := range m.scheduler.Jobs() {
		names = append(names, job.Name())
	}
	return names
}

// Stop shuts the scheduler down, waiting for running sweeps.
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		m.logger.Error("Failed to shutdown scheduler", zap.Error(err))
	}
	m.logger.Info("Scheduler stopped")
}
