package bookingtypes

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/depot/internal/database"
	"github.com/mrlokans/depot/internal/entities"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	conn := database.NewConnectionManager(database.Options{
		Path:     filepath.Join(t.TempDir(), "bookingtypes.db"),
		LogLevel: logger.Silent,
	})
	require.NoError(t, conn.Connect(context.Background()))
	t.Cleanup(func() { conn.Disconnect() })
	return NewRepository(database.NewTransactionManager(conn, 0))
}

func TestRepository_AccountScope(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	for _, name := range []string{"Buy", "Sell", "Dividend"} {
		_, err := repo.Save(ctx, entities.BookingType{Name: name, AccountID: 1}, nil)
		require.NoError(t, err)
	}
	other, err := repo.Save(ctx, entities.BookingType{Name: "Buy", AccountID: 2}, nil)
	require.NoError(t, err)

	found, err := repo.FindByAccount(ctx, 1, nil)
	require.NoError(t, err)
	require.Len(t, found, 3)
	assert.Equal(t, "Buy", found[0].Name)
	assert.Equal(t, "Dividend", found[2].Name)

	n, err := repo.CountByAccount(ctx, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	deleted, err := repo.DeleteByAccount(ctx, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)

	empty, err := repo.FindByAccount(ctx, 1, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	kept, err := repo.FindByID(ctx, other, nil)
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.Equal(t, uint(2), kept.AccountID)
}
