package scheduler

import (
	"sort"

	"github.com/aristath/mcpricer/internal/database"
	"github.com/rs/zerolog"
)

// walFrameWarning is the WAL size (in frames) above which a warning is logged
const walFrameWarning = 1000

// WALCheckpointJob truncates the WAL of every database
type WALCheckpointJob struct {
	databases map[string]*database.DB
	log       zerolog.Logger
}

// NewWALCheckpointJob creates a new WALCheckpointJob. Nil entries are skipped.
func NewWALCheckpointJob(databases map[string]*database.DB, log zerolog.Logger) *WALCheckpointJob {
	return &WALCheckpointJob{
		databases: databases,
		log:       log.With().Str("job", "wal_checkpoint").Logger(),
	}
}

// Name returns the job name
func (j *WALCheckpointJob) Name() string {
	return "wal_checkpoint"
}

// Run executes the checkpoint job. Individual failures are logged, not returned.
func (j *WALCheckpointJob) Run() error {
	names := make([]string, 0, len(j.databases))
	for name := range j.databases {
		names = append(names, name)
	}
	sort.Strings(names)

	checked := 0
	for _, name := range names {
		db := j.databases[name]
		if db == nil {
			continue
		}

		// PRAGMA wal_checkpoint returns: busy, log, checkpointed
		var busy, frames, checkpointed int
		if err := db.Conn().QueryRow("PRAGMA wal_checkpoint(TRUNCATE)").Scan(&busy, &frames, &checkpointed); err != nil {
			j.log.Warn().Err(err).Str("database", name).Msg("WAL checkpoint failed")
			continue
		}

		if frames > walFrameWarning {
			j.log.Warn().
				Str("database", name).
				Int("wal_frames", frames).
				Int("checkpointed", checkpointed).
				Msg("WAL file was large before checkpoint")
		} else {
			j.log.Debug().Str("database", name).Int("wal_frames", frames).Msg("WAL checkpoint OK")
		}
		checked++
	}

	j.log.Info().Int("checked", checked).Msg("WAL checkpoint completed")
	return nil
}
