package tasks

import (
	"time"

	"github.com/mikestefanello/backlite"
)

// Config holds configuration for the task queue system.
type Config struct {
	// Workers is the number of concurrent task workers. Default: 1
	Workers int

	// MaxRetries is the maximum attempts for every queue. Default: 3
	MaxRetries int

	// RetryDelay is the backoff duration between retries. Default: 1m
	RetryDelay time.Duration

	// TaskTimeout bounds a single task execution. Default: 5m
	TaskTimeout time.Duration

	// ReleaseAfter is when stuck tasks are released back to queue. Default: 15m
	ReleaseAfter time.Duration

	// CleanupInterval is how often to clean up completed tasks. Default: 1h
	CleanupInterval time.Duration

	// RetentionDuration is how long to keep completed tasks. Default: 24h
	RetentionDuration time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:           1,
		MaxRetries:        3,
		RetryDelay:        1 * time.Minute,
		TaskTimeout:       5 * time.Minute,
		ReleaseAfter:      15 * time.Minute,
		CleanupInterval:   1 * time.Hour,
		RetentionDuration: 24 * time.Hour,
	}
}

// applyTo overrides a queue's own settings with the configured ones. Zero
// values leave the queue's setting in place.
func (c Config) applyTo(q backlite.Queue) backlite.Queue {
	qc := q.Config()
	if c.MaxRetries > 0 {
		qc.MaxAttempts = c.MaxRetries
	}
	if c.RetryDelay > 0 {
		qc.Backoff = c.RetryDelay
	}
	if c.TaskTimeout > 0 {
		qc.Timeout = c.TaskTimeout
	}
	if c.RetentionDuration > 0 && qc.Retention != nil {
		qc.Retention.Duration = c.RetentionDuration
	}
	return q
}
