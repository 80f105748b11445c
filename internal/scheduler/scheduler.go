// Package scheduler runs the recurring maintenance jobs: the daily benchmark
// price sync and the client data cache cleanup.
package scheduler

import (
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is a named unit of scheduled work.
type Job interface {
	Name() string
	Run() error
}

// Scheduler wraps a cron runner with logging and panic isolation.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// New creates a scheduler.
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		log:  log.With().Str("service", "scheduler").Logger(),
	}
}

// Register schedules a job with a cron spec ("@daily", "0 * * * *", ...).
func (s *Scheduler) Register(spec string, job Job) error {
	log := s.log.With().Str("job", job.Name()).Logger()
	_, err := s.cron.AddFunc(spec, func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Msg("Job panicked")
			}
		}()
		if err := job.Run(); err != nil {
			log.Error().Err(err).Msg("Job failed")
			return
		}
		log.Debug().Msg("Job completed")
	})
	if err != nil {
		return err
	}
	log.Info().Str("spec", spec).Msg("Registered job")
	return nil
}

// Start launches the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("Scheduler started")
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}
