package batch

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/depot/internal/database"
	"github.com/mrlokans/depot/internal/entities"
)

func setupTestService(t *testing.T) (*Service, *database.TransactionManager) {
	t.Helper()
	conn := database.NewConnectionManager(database.Options{
		Path:     filepath.Join(t.TempDir(), "batch.db"),
		LogLevel: logger.Silent,
	})
	require.NoError(t, conn.Connect(context.Background()))
	t.Cleanup(func() { conn.Disconnect() })
	tm := database.NewTransactionManager(conn, 0)
	return NewService(tm), tm
}

func count(t *testing.T, tm *database.TransactionManager, store entities.StoreName) int64 {
	t.Helper()
	var n int64
	err := tm.Execute(context.Background(), []entities.StoreName{store}, database.ReadOnly, func(tx *database.Tx) error {
		var err error
		n, err = tx.Count(store)
		return err
	})
	require.NoError(t, err)
	return n
}

func TestService_ExecuteAtomic(t *testing.T) {
	svc, tm := setupTestService(t)
	ctx := context.Background()

	err := svc.ExecuteAtomic(ctx, []Descriptor{
		{Store: entities.StoreAccounts, Operations: []Operation{
			Add{Record: &entities.Account{IBAN: "DE0001"}},
		}},
		{Store: entities.StoreStocks, Operations: []Operation{
			Add{Record: &entities.Stock{ISIN: "US1234567890", Symbol: "ABC", AccountID: 1}},
		}},
		{Store: entities.StoreBookings, Operations: []Operation{
			Add{Record: &entities.Booking{AccountID: 1, Debit: decimal.NewFromInt(1000)}},
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), count(t, tm, entities.StoreAccounts))
	assert.Equal(t, int64(1), count(t, tm, entities.StoreStocks))
	assert.Equal(t, int64(1), count(t, tm, entities.StoreBookings))
}

func TestService_FailureRollsBackEveryStore(t *testing.T) {
	svc, tm := setupTestService(t)
	ctx := context.Background()

	err := svc.ExecuteAtomic(ctx, []Descriptor{
		{Store: entities.StoreStocks, Operations: []Operation{
			Add{Record: &entities.Stock{ISIN: "US1234567890", Symbol: "ABC", AccountID: 1}},
		}},
		{Store: entities.StoreAccounts, Operations: []Operation{
			Add{Record: &entities.Account{IBAN: "DE0001"}},
			Add{Record: &entities.Account{IBAN: "DE0001"}},
		}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, database.ErrTransactionFailed)

	assert.Zero(t, count(t, tm, entities.StoreAccounts))
	assert.Zero(t, count(t, tm, entities.StoreStocks))
}

func TestService_OperationsApplyInOrder(t *testing.T) {
	svc, tm := setupTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Execute(ctx, entities.StoreBookingTypes, []Operation{
		Add{Record: entities.BookingType{ID: 1, Name: "Buy", AccountID: 1}},
		Add{Record: entities.BookingType{ID: 2, Name: "Sell", AccountID: 1}},
	}))

	require.NoError(t, svc.Execute(ctx, entities.StoreBookingTypes, []Operation{
		Clear{},
		Add{Record: entities.BookingType{ID: 3, Name: "Dividend", AccountID: 1}},
		Put{Record: entities.BookingType{ID: 3, Name: "Dividends", AccountID: 1}},
		Add{Record: entities.BookingType{ID: 4, Name: "Fee", AccountID: 1}},
		Delete{Key: 4},
	}))

	var got []entities.BookingType
	err := tm.Execute(ctx, []entities.StoreName{entities.StoreBookingTypes}, database.ReadOnly, func(tx *database.Tx) error {
		return tx.GetAll(entities.StoreBookingTypes, &got)
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint(3), got[0].ID)
	assert.Equal(t, "Dividends", got[0].Name)
}

func TestValidate(t *testing.T) {
	account := &entities.Account{IBAN: "DE0001"}

	tests := []struct {
		name        string
		descriptors []Descriptor
	}{
		{name: "no descriptors"},
		{
			name:        "unknown store",
			descriptors: []Descriptor{{Store: "portfolios", Operations: []Operation{Clear{}}}},
		},
		{
			name:        "no operations",
			descriptors: []Descriptor{{Store: entities.StoreAccounts}},
		},
		{
			name:        "nil operation",
			descriptors: []Descriptor{{Store: entities.StoreAccounts, Operations: []Operation{nil}}},
		},
		{
			name:        "delete without key",
			descriptors: []Descriptor{{Store: entities.StoreAccounts, Operations: []Operation{Delete{}}}},
		},
		{
			name:        "add without record",
			descriptors: []Descriptor{{Store: entities.StoreAccounts, Operations: []Operation{Add{}}}},
		},
		{
			name:        "record of another store",
			descriptors: []Descriptor{{Store: entities.StoreStocks, Operations: []Operation{Put{Record: account}}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.descriptors)
			require.Error(t, err)
			assert.ErrorIs(t, err, database.ErrInvalidBatch)
			assert.False(t, database.IsRecoverable(err))
		})
	}

	t.Run("stores in first-seen order", func(t *testing.T) {
		stores, err := Validate([]Descriptor{
			{Store: entities.StoreStocks, Operations: []Operation{Clear{}}},
			{Store: entities.StoreAccounts, Operations: []Operation{Add{Record: account}}},
			{Store: entities.StoreStocks, Operations: []Operation{Delete{Key: 1}}},
		})
		require.NoError(t, err)
		assert.Equal(t, []entities.StoreName{entities.StoreStocks, entities.StoreAccounts}, stores)
	})
}

func TestService_InvalidBatchTouchesNothing(t *testing.T) {
	svc, tm := setupTestService(t)

	err := svc.ExecuteAtomic(context.Background(), []Descriptor{
		{Store: entities.StoreAccounts, Operations: []Operation{Add{Record: &entities.Account{IBAN: "DE0001"}}}},
		{Store: entities.StoreBookings, Operations: []Operation{Delete{}}},
	})
	assert.ErrorIs(t, err, database.ErrInvalidBatch)
	assert.Zero(t, count(t, tm, entities.StoreAccounts))
}
