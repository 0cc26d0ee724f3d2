package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/depot/internal/batch"
	"github.com/mrlokans/depot/internal/database"
	"github.com/mrlokans/depot/internal/entities"
)

func setupTestStorage(t *testing.T) *StorageService {
	t.Helper()
	conn := database.NewConnectionManager(database.Options{
		Path:     filepath.Join(t.TempDir(), "depot.db"),
		LogLevel: logger.Silent,
	})
	s := NewStorageService(conn, 0)
	require.NoError(t, s.Connect(context.Background()))
	t.Cleanup(func() { s.Disconnect() })
	return s
}

// seedAccount stores an account with one stock and one booking and a second,
// unrelated account.
func seedAccount(t *testing.T, s *StorageService) {
	t.Helper()
	ctx := context.Background()

	accountID, err := s.Accounts().Save(ctx, entities.Account{IBAN: "DE0001"}, nil)
	require.NoError(t, err)
	require.Equal(t, uint(1), accountID)

	stockID, err := s.Stocks().Save(ctx, entities.Stock{ISIN: "US1234567890", Symbol: "ABC", AccountID: 1}, nil)
	require.NoError(t, err)
	require.Equal(t, uint(1), stockID)

	bookingID, err := s.Bookings().Save(ctx, entities.Booking{
		AccountID:     1,
		StockID:       &stockID,
		BookingTypeID: 1,
		Debit:         decimal.NewFromInt(1000),
		Credit:        decimal.Zero,
	}, nil)
	require.NoError(t, err)
	require.Equal(t, uint(1), bookingID)

	other, err := s.Accounts().Save(ctx, entities.Account{IBAN: "DE0002"}, nil)
	require.NoError(t, err)
	_, err = s.BookingTypes().Save(ctx, entities.BookingType{Name: "Buy", AccountID: other}, nil)
	require.NoError(t, err)
}

func TestStorageService_GetAccountRecords(t *testing.T) {
	s := setupTestStorage(t)
	seedAccount(t, s)

	records, err := s.GetAccountRecords(context.Background(), 1)
	require.NoError(t, err)

	assert.Len(t, records.Accounts, 2, "all accounts are listed")
	require.Len(t, records.Stocks, 1)
	assert.Equal(t, "US1234567890", records.Stocks[0].ISIN)
	require.Len(t, records.Bookings, 1)
	assert.True(t, records.Bookings[0].Debit.Equal(decimal.NewFromInt(1000)))
	assert.Empty(t, records.BookingTypes)
	assert.NotNil(t, records.BookingTypes)
}

func TestStorageService_DeleteAccountRecords(t *testing.T) {
	s := setupTestStorage(t)
	seedAccount(t, s)
	ctx := context.Background()

	res, err := s.DeleteAccountRecords(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, &DeleteResult{AccountID: 1, Bookings: 1, BookingTypes: 0, Stocks: 1}, res)

	records, err := s.GetAccountRecords(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records.Accounts, 1)
	assert.Equal(t, "DE0002", records.Accounts[0].IBAN)
	assert.Empty(t, records.Bookings)
	assert.Empty(t, records.Stocks)

	health, err := s.HealthCheck(ctx)
	require.NoError(t, err)
	assert.True(t, health.Healthy, "deleting an account leaves no orphans")
}

func TestStorageService_DeleteOnlyAccount(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Batch().
		Insert(entities.StoreAccounts, entities.Account{IBAN: "DE0001"}).
		Insert(entities.StoreStocks, entities.Stock{ISIN: "US1234567890", Symbol: "ABC", AccountID: 1}).
		Insert(entities.StoreBookings, entities.Booking{AccountID: 1, Debit: decimal.NewFromInt(1000)}).
		Execute(ctx))

	_, err := s.DeleteAccountRecords(ctx, 1)
	require.NoError(t, err)

	records, err := s.GetAccountRecords(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, records.Accounts)
	assert.Empty(t, records.Bookings)
	assert.Empty(t, records.BookingTypes)
	assert.Empty(t, records.Stocks)

	for store, repo := range s.Repositories() {
		n, err := repo.Count(ctx, nil)
		require.NoError(t, err)
		assert.Zero(t, n, store)
	}
}

func TestStorageService_AtomicImport(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	descriptors, err := batch.DecodeDescriptors([]byte(`[
		{"store": "accounts", "operations": [{"type": "add", "data": {"iban": "DE0001"}}]},
		{"store": "bookingTypes", "operations": [{"type": "add", "data": {"name": "Dividend", "accountId": 1}}]}
	]`))
	require.NoError(t, err)
	require.NoError(t, s.AtomicImport(ctx, descriptors))

	types, err := s.BookingTypes().FindByAccount(ctx, 1, nil)
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, "Dividend", types[0].Name)

	err = s.BatchOperations(ctx, entities.StoreAccounts, []batch.Operation{batch.Delete{}})
	assert.ErrorIs(t, err, database.ErrInvalidBatch)
}

func TestStorageService_Repair(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	_, err := s.Stocks().Save(ctx, entities.Stock{ISIN: "US1234567890", AccountID: 5}, nil)
	require.NoError(t, err)

	check, err := s.HealthCheck(ctx)
	require.NoError(t, err)
	assert.False(t, check.Healthy)

	res, err := s.RepairDatabase(ctx)
	require.NoError(t, err)
	assert.True(t, res.Healthy)
	assert.Equal(t, 1, res.Fixed)
}

func TestStorageService_Repository(t *testing.T) {
	s := setupTestStorage(t)

	repo, err := s.Repository(entities.StoreStocks)
	require.NoError(t, err)
	assert.Equal(t, entities.StoreStocks, repo.Store())

	_, err = s.Repository("portfolios")
	assert.Error(t, err)

	assert.Len(t, s.Repositories(), len(entities.Stores))
	assert.True(t, s.IsConnected())
	assert.Same(t, s.Connection(), s.Transactions().Connection())
}
