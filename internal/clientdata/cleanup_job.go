package clientdata

import (
	"github.com/rs/zerolog"
)

// CleanupJob evicts expired cached data service responses. The scheduler runs
// it hourly so stale statement and price payloads never outlive their TTL by
// more than one sweep.
type CleanupJob struct {
	repo *Repository
	log  zerolog.Logger
}

// NewCleanupJob creates the cache cleanup job.
func NewCleanupJob(repo *Repository, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		repo: repo,
		log:  log.With().Str("job", "client_data_cleanup").Logger(),
	}
}

// Name identifies the job in scheduler logs.
func (j *CleanupJob) Name() string {
	return "client_data_cleanup"
}

// Run sweeps every cache table, deleting entries past their expiry.
func (j *CleanupJob) Run() error {
	results, err := j.repo.DeleteAllExpired()
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to delete expired client data")
		return err
	}

	var total int64
	for table, count := range results {
		if count > 0 {
			j.log.Debug().Str("table", table).Int64("deleted", count).Msg("Evicted expired cache entries")
			total += count
		}
	}
	if total > 0 {
		j.log.Info().Int64("deleted", total).Msg("Cache cleanup swept expired entries")
	}
	return nil
}
