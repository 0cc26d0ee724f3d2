package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/depot/internal/batch"
)

// BatchImporter persists decoded batches atomically.
type BatchImporter interface {
	AtomicImport(ctx context.Context, descriptors []batch.Descriptor) error
}

// ImportBatchTask applies a JSON batch document in the background.
type ImportBatchTask struct {
	Payload json.RawMessage `json:"payload"`
}

// Config returns the queue configuration for import tasks. A batch either
// applies fully or not at all, so a failed attempt is safe to retry.
func (t ImportBatchTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "import_batch",
		MaxAttempts: 2,
		Backoff:     30 * time.Second,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ImportBatchProcessor creates a processor function for ImportBatchTask.
func ImportBatchProcessor(importer BatchImporter) backlite.QueueProcessor[ImportBatchTask] {
	return func(ctx context.Context, task ImportBatchTask) error {
		if importer == nil {
			return fmt.Errorf("importer not configured")
		}

		descriptors, err := batch.DecodeDescriptors(task.Payload)
		if err != nil {
			return err
		}
		if err := importer.AtomicImport(ctx, descriptors); err != nil {
			return fmt.Errorf("import batch: %w", err)
		}

		log.Printf("[TASK] Imported batch over %d store(s)", len(descriptors))
		return nil
	}
}

// NewImportBatchQueue creates a backlite queue for import tasks with the
// retry, timeout and retention settings of cfg.
func NewImportBatchQueue(importer BatchImporter, cfg Config) backlite.Queue {
	return cfg.applyTo(backlite.NewQueue(ImportBatchProcessor(importer)))
}
