package prospect

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler runs the reminder sweep on a fixed interval.
type Scheduler struct {
	cron   *cron.Cron
	logger zerolog.Logger
}

// NewScheduler wires the sweep job. Start must be called to begin
// sweeping; Stop drains the running job.
func NewScheduler(svc *Service, interval time.Duration, logger zerolog.Logger) (*Scheduler, error) {
	c := cron.New()
	spec := fmt.Sprintf("@every %s", interval)
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		fired, err := svc.SweepDueReminders(ctx, time.Now())
		if err != nil {
			logger.Error().Err(err).Msg("reminder sweep failed")
			return
		}
		if fired > 0 {
			logger.Info().Int("fired", fired).Msg("reminders fired")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule reminder sweep: %w", err)
	}
	return &Scheduler{cron: c, logger: logger}, nil
}

// Start begins running the sweep in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Msg("reminder scheduler started")
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
