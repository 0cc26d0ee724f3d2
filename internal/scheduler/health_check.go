package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/depot/internal/health"
)

// HealthChecker runs an integrity check of the depot store.
type HealthChecker interface {
	HealthCheck(ctx context.Context) (*health.Result, error)
}

// RepairEnqueuer hands a repair to the background queue.
type RepairEnqueuer interface {
	EnqueueRepair(reason string) (string, error)
}

// HealthScheduler runs periodic integrity checks and, with auto repair on,
// enqueues a repair whenever a check finds issues.
type HealthScheduler struct {
	checker  HealthChecker
	repairs  RepairEnqueuer
	schedule string

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isChecking bool
	lastResult *health.Result
}

// NewHealthScheduler creates a scheduler. repairs may be nil to only report.
func NewHealthScheduler(checker HealthChecker, repairs RepairEnqueuer, schedule string) *HealthScheduler {
	return &HealthScheduler{
		checker:  checker,
		repairs:  repairs,
		schedule: schedule,
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start registers the check job and starts the cron loop. It stops when ctx
// is done.
func (s *HealthScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.runCheck()
	})
	if err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true

	log.Printf("[HEALTH] Scheduler started with schedule '%s'. Next run: %v", s.schedule, s.cron.Entry(entryID).Next)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running check and stops the scheduler.
func (s *HealthScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.mu.Unlock()

	// runCheck takes the lock, so wait outside of it.
	<-s.cron.Stop().Done()
	log.Printf("[HEALTH] Scheduler stopped")
}

// RunNow triggers an immediate check in the background.
func (s *HealthScheduler) RunNow() {
	go s.runCheck()
}

// IsRunning returns whether the scheduler is active
func (s *HealthScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// LastResult returns the outcome of the most recent check, nil before the
// first one.
func (s *HealthScheduler) LastResult() *health.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastResult
}

// GetNextRunTime returns when the next check will occur
func (s *HealthScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	t := s.cron.Entry(s.entryID).Next
	return &t
}

func (s *HealthScheduler) runCheck() {
	s.mu.Lock()
	if s.isChecking {
		s.mu.Unlock()
		log.Printf("[HEALTH] Check skipped (already running)")
		return
	}
	s.isChecking = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isChecking = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := s.checker.HealthCheck(ctx)
	if err != nil {
		log.Printf("[HEALTH] Scheduled check failed: %v", err)
		return
	}

	s.mu.Lock()
	s.lastResult = result
	s.mu.Unlock()

	if result.Healthy {
		log.Printf("[HEALTH] Scheduled check passed (%d accounts, %d bookings, %d booking types, %d stocks)",
			result.Stats.Accounts, result.Stats.Bookings, result.Stats.BookingTypes, result.Stats.Stocks)
		return
	}
	if s.repairs == nil {
		return
	}

	id, err := s.repairs.EnqueueRepair("scheduled check")
	if err != nil {
		log.Printf("[HEALTH] Failed to enqueue repair: %v", err)
		return
	}
	log.Printf("[HEALTH] Enqueued repair task %s for %d issue(s)", id, len(result.Issues))
}
