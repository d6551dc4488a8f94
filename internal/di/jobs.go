// Package di provides dependency injection for scheduler jobs.
package di

import (
	"fmt"

	"github.com/aristath/mcpricer/internal/config"
	"github.com/aristath/mcpricer/internal/reliability"
	"github.com/aristath/mcpricer/internal/scheduler"
	"github.com/rs/zerolog"
)

// walCheckpointSchedule runs the checkpoint every night at 02:30
const walCheckpointSchedule = "0 30 2 * * *"

// RegisterJobs builds the background jobs and registers them with sched.
// Jobs with an empty schedule are registered for manual triggering only.
func RegisterJobs(container *Container, cfg *config.Config, sched *scheduler.Scheduler, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	instances := &JobInstances{
		Revaluation:   scheduler.NewRevaluationJob(container.PricingService, 0, log),
		WALCheckpoint: scheduler.NewWALCheckpointJob(container.Databases(), log),
	}
	if container.BackupService != nil {
		instances.Backup = reliability.NewBackupJob(container.BackupService, cfg.Backup.RetentionDays, log)
	}

	if sched == nil {
		return instances, nil
	}

	schedules := []struct {
		schedule string
		job      scheduler.Job
	}{
		{cfg.RevaluationSchedule, instances.Revaluation},
		{walCheckpointSchedule, instances.WALCheckpoint},
	}
	if instances.Backup != nil {
		schedules = append(schedules, struct {
			schedule string
			job      scheduler.Job
		}{cfg.Backup.Schedule, instances.Backup})
	}

	for _, s := range schedules {
		if s.schedule == "" {
			if err := sched.Register(s.job); err != nil {
				return nil, fmt.Errorf("failed to register %s job: %w", s.job.Name(), err)
			}
			continue
		}
		if err := sched.AddJob(s.schedule, s.job); err != nil {
			return nil, fmt.Errorf("failed to register %s job: %w", s.job.Name(), err)
		}
	}

	return instances, nil
}
