package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// DefaultBackupTimeout bounds one backup and rotation pass
const DefaultBackupTimeout = 15 * time.Minute

// BackupJob uploads a fresh backup and rotates old ones
type BackupJob struct {
	service       *BackupService
	retentionDays int
	timeout       time.Duration
	log           zerolog.Logger
}

// NewBackupJob creates a new BackupJob
func NewBackupJob(service *BackupService, retentionDays int, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		service:       service,
		retentionDays: retentionDays,
		timeout:       DefaultBackupTimeout,
		log:           log.With().Str("job", "backup").Logger(),
	}
}

// Name returns the job name
func (j *BackupJob) Name() string {
	return "backup"
}

// Run executes the backup job. A failed rotation is logged but does not fail the job.
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if _, err := j.service.CreateAndUploadBackup(ctx); err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	if _, err := j.service.RotateOldBackups(ctx, j.retentionDays); err != nil {
		j.log.Warn().Err(err).Msg("Backup rotation failed")
	}
	return nil
}
