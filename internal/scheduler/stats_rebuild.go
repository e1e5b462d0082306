// Package scheduler runs recurring background jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultStatsRebuildSchedule runs the rebuild daily at 03:00.
const DefaultStatsRebuildSchedule = "0 3 * * *"

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// FullRefresher requests a rebuild of every book summary.
type FullRefresher interface {
	RequestFullRefresh(ctx context.Context) error
}

// ValidateSchedule reports whether schedule is a valid five-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// NextRun returns the next activation time of schedule after from.
func NextRun(schedule string, from time.Time) (time.Time, error) {
	sched, err := parser.Parse(schedule)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(from), nil
}

// StatsRebuildScheduler periodically asks for a full reader-score rebuild.
type StatsRebuildScheduler struct {
	refresher FullRefresher
	schedule  string

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewStatsRebuildScheduler creates a scheduler. An empty schedule falls back
// to DefaultStatsRebuildSchedule.
func NewStatsRebuildScheduler(refresher FullRefresher, schedule string) *StatsRebuildScheduler {
	if schedule == "" {
		schedule = DefaultStatsRebuildSchedule
	}
	return &StatsRebuildScheduler{
		refresher: refresher,
		schedule:  schedule,
		cron:      cron.New(cron.WithParser(parser)),
	}
}

// Start registers the rebuild job and starts the cron loop. It stops on its
// own when ctx is canceled.
func (s *StatsRebuildScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if err := ValidateSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, s.RunNow)
	if err != nil {
		return fmt.Errorf("failed to schedule stats rebuild: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := NextRun(s.schedule, time.Now())
	log.Printf("Stats rebuild scheduler: started with schedule '%s'. Next run: %v", s.schedule, nextRun)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *StatsRebuildScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.cron.Remove(s.entryID)
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
	s.isRunning = false

	log.Printf("Stats rebuild scheduler: stopped")
}

// RunNow requests a rebuild immediately.
func (s *StatsRebuildScheduler) RunNow() {
	if err := s.refresher.RequestFullRefresh(context.Background()); err != nil {
		log.Printf("Stats rebuild: failed to request rebuild: %v", err)
		return
	}
	log.Printf("Stats rebuild: requested")
}

// IsRunning returns whether the scheduler is active.
func (s *StatsRebuildScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next rebuild will be requested.
func (s *StatsRebuildScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}
