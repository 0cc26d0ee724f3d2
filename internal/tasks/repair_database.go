package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/depot/internal/health"
)

// Repairer removes integrity issues from the depot store.
type Repairer interface {
	RepairDatabase(ctx context.Context) (*health.RepairResult, error)
}

// RepairDatabaseTask runs a full health check and repairs what it finds.
type RepairDatabaseTask struct {
	Reason string `json:"reason"`
}

// Config returns the default queue configuration for repair tasks.
func (t RepairDatabaseTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "repair_database",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// RepairDatabaseProcessor creates a processor function for RepairDatabaseTask.
// A repair that leaves issues behind fails the task so backlite retries it.
func RepairDatabaseProcessor(repairer Repairer) backlite.QueueProcessor[RepairDatabaseTask] {
	return func(ctx context.Context, task RepairDatabaseTask) error {
		if repairer == nil {
			return fmt.Errorf("repairer not configured")
		}

		result, err := repairer.RepairDatabase(ctx)
		if err != nil {
			return fmt.Errorf("repair database: %w", err)
		}

		log.Printf("[TASK] Repair (%s): fixed %d record(s), %d error(s)", task.Reason, result.Fixed, len(result.Errors))
		if !result.Healthy {
			return fmt.Errorf("database still unhealthy after repair, %d issue(s) failed", len(result.Errors))
		}
		return nil
	}
}

// NewRepairDatabaseQueue creates a backlite queue for repair tasks with the
// retry, timeout and retention settings of cfg.
func NewRepairDatabaseQueue(repairer Repairer, cfg Config) backlite.Queue {
	return cfg.applyTo(backlite.NewQueue(RepairDatabaseProcessor(repairer)))
}
