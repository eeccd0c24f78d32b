package cleanup

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const sweepTimeout = 5 * time.Minute

type Scheduler struct {
	cron    *cron.Cron
	sweeper *Sweeper
}

func NewScheduler(sweeper *Sweeper) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		sweeper: sweeper,
	}
}

// Start registers the sweep on spec (six fields, seconds first) and starts
// the cron runner.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return err
	}
	log.Info().Str("schedule", spec).Msg("hosting cleanup scheduler started")
	s.cron.Start()
	return nil
}

// Stop waits for a running sweep to finish.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	report, err := s.sweeper.Sweep(ctx)
	ev := log.Info()
	if err != nil {
		ev = log.Error().Err(err)
	}
	ev.Int("deleted", report.Deleted).Int("requeued", report.Requeued).Msg("hosting cleanup sweep finished")
}
