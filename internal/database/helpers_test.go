package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func testOptions(t *testing.T) Options {
	t.Helper()
	return Options{
		Path:     filepath.Join(t.TempDir(), "depot.db"),
		LogLevel: logger.Silent,
	}
}

// setupTestDB connects a manager to a fresh database file.
func setupTestDB(t *testing.T) (*ConnectionManager, *TransactionManager) {
	t.Helper()
	conn := NewConnectionManager(testOptions(t))
	require.NoError(t, conn.Connect(context.Background()))
	t.Cleanup(func() { conn.Disconnect() })
	return conn, NewTransactionManager(conn, 0)
}
