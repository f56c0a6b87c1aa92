package sessionmemory

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// sweepSchedule runs the idle eviction sweep hourly, well inside the
// 24-hour idle timeout so no session lingers much past it.
const sweepSchedule = "@hourly"

// Sweeper periodically evicts idle sessions from a Store in the
// background, following the teacher's internal/cron scheduling style.
type Sweeper struct {
	cron   *cron.Cron
	store  *Store
	logger *slog.Logger
}

// NewSweeper builds a Sweeper bound to store. Call Start to begin the
// periodic sweep and Stop to shut it down cleanly.
func NewSweeper(store *Store, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		cron:   cron.New(),
		store:  store,
		logger: logger,
	}
}

// Start schedules the periodic sweep. Returns an error if the schedule
// expression fails to parse.
func (s *Sweeper) Start() error {
	_, err := s.cron.AddFunc(sweepSchedule, func() {
		evicted := s.store.EvictIdle(time.Now())
		if evicted > 0 {
			s.logger.Info("sessionmemory: evicted idle sessions", "count", evicted)
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the sweep, waiting for any in-flight run to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}
