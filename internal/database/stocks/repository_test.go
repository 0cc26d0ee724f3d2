package stocks

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
		Path:     filepath.Join(t.TempDir(), "stocks.db"),
		LogLevel: logger.Silent,
	})
	require.NoError(t, conn.Connect(context.Background()))
	t.Cleanup(func() { conn.Disconnect() })
	return NewRepository(database.NewTransactionManager(conn, 0))
}

func TestRepository_UniquePerAccount(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	first, err := repo.Save(ctx, entities.Stock{ISIN: "US1234567890", Symbol: "ABC", AccountID: 1}, nil)
	require.NoError(t, err)

	_, err = repo.Save(ctx, entities.Stock{ISIN: "US1234567890", Symbol: "ABC", AccountID: 2}, nil)
	require.NoError(t, err, "another account may hold the same stock")

	_, err = repo.Save(ctx, entities.Stock{ISIN: "US1234567890", Symbol: "ABD", AccountID: 1}, nil)
	assert.ErrorIs(t, err, database.ErrRequestFailed, "duplicate isin within an account")

	_, err = repo.Save(ctx, entities.Stock{ISIN: "US0000000001", Symbol: "ABC", AccountID: 1}, nil)
	assert.ErrorIs(t, err, database.ErrRequestFailed, "duplicate symbol within an account")

	stock, err := repo.FindByISIN(ctx, 1, "US1234567890", nil)
	require.NoError(t, err)
	require.NotNil(t, stock)
	assert.Equal(t, first, stock.ID)

	stock, err = repo.FindBySymbol(ctx, 2, "ABC", nil)
	require.NoError(t, err)
	require.NotNil(t, stock)
	assert.Equal(t, uint(2), stock.AccountID)

	stock, err = repo.FindByISIN(ctx, 3, "US1234567890", nil)
	require.NoError(t, err)
	assert.Nil(t, stock)

	all, err := repo.FindByISINAnyAccount(ctx, "US1234567890", nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRepository_Flags(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	for _, s := range []entities.Stock{
		{ISIN: "DE0000000001", Symbol: "A", AccountID: 1, FirstPage: true},
		{ISIN: "DE0000000002", Symbol: "B", AccountID: 1, FadeOut: true},
		{ISIN: "DE0000000003", Symbol: "C", AccountID: 1},
	} {
		_, err := repo.Save(ctx, s, nil)
		require.NoError(t, err)
	}

	pinned, err := repo.FindFirstPage(ctx, nil)
	require.NoError(t, err)
	require.Len(t, pinned, 1)
	assert.Equal(t, "A", pinned[0].Symbol)

	active, err := repo.FindActive(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	n, err := repo.CountByAccount(ctx, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	deleted, err := repo.DeleteByAccount(ctx, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)
}
