package cli

import (
	"context"
	"fmt"

	"gorm.io/gorm/logger"

	"github.com/mrlokans/depot/internal/database"
	"github.com/mrlokans/depot/internal/services"
)

// openStorage connects to the depot database at path for a one-shot
// command. version 0 opens the current schema.
func openStorage(ctx context.Context, path string, version int, verbose bool) (*services.StorageService, error) {
	level := logger.Silent
	if verbose {
		level = logger.Info
	}
	conn := database.NewConnectionManager(database.Options{
		Path:     path,
		Version:  version,
		LogLevel: level,
	})
	storage := services.NewStorageService(conn, 0)
	if err := storage.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	return storage, nil
}
