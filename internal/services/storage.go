package services

import (
	"context"
	"log"
	"time"

	"github.com/mrlokans/depot/internal/batch"
	"github.com/mrlokans/depot/internal/database"
	"github.com/mrlokans/depot/internal/database/accounts"
	"github.com/mrlokans/depot/internal/database/bookings"
	"github.com/mrlokans/depot/internal/database/bookingtypes"
	"github.com/mrlokans/depot/internal/database/repositories"
	"github.com/mrlokans/depot/internal/database/stocks"
	"github.com/mrlokans/depot/internal/entities"
	"github.com/mrlokans/depot/internal/health"
)

// accountScope lists every store an account-wide operation touches.
var accountScope = []entities.StoreName{
	entities.StoreAccounts,
	entities.StoreBookings,
	entities.StoreBookingTypes,
	entities.StoreStocks,
}

// StorageService is the entry point to the depot store. It owns the
// connection and hands out repositories, batches and health checks that
// all share it.
type StorageService struct {
	conn   *database.ConnectionManager
	tm     *database.TransactionManager
	repos  *repositories.Factory
	batch  *batch.Service
	health *health.Service
}

// NewStorageService wires the storage stack around conn. Transactions
// without an explicit timeout use txTimeout; zero means none.
func NewStorageService(conn *database.ConnectionManager, txTimeout time.Duration) *StorageService {
	tm := database.NewTransactionManager(conn, txTimeout)
	repos := repositories.NewFactory(tm)
	return &StorageService{
		conn:   conn,
		tm:     tm,
		repos:  repos,
		batch:  batch.NewService(tm),
		health: health.NewService(tm, repos),
	}
}

func (s *StorageService) Connect(ctx context.Context) error {
	return s.conn.Connect(ctx)
}

func (s *StorageService) Disconnect() error {
	return s.conn.Disconnect()
}

func (s *StorageService) IsConnected() bool {
	return s.conn.IsConnected()
}

// OnVersionChange installs the handler run when another connection
// upgrades the schema.
func (s *StorageService) OnVersionChange(handler database.VersionChangeHandler) {
	s.conn.OnVersionChange(handler)
}

// Connection exposes the underlying connection manager.
func (s *StorageService) Connection() *database.ConnectionManager {
	return s.conn
}

// Transactions exposes the transaction manager for callers composing
// their own units of work.
func (s *StorageService) Transactions() *database.TransactionManager {
	return s.tm
}

func (s *StorageService) Repository(store entities.StoreName) (database.Repository, error) {
	return s.repos.Get(store)
}

func (s *StorageService) Repositories() map[entities.StoreName]database.Repository {
	return s.repos.All()
}

func (s *StorageService) Accounts() *accounts.Repository         { return s.repos.Accounts() }
func (s *StorageService) Bookings() *bookings.Repository         { return s.repos.Bookings() }
func (s *StorageService) BookingTypes() *bookingtypes.Repository { return s.repos.BookingTypes() }
func (s *StorageService) Stocks() *stocks.Repository             { return s.repos.Stocks() }

// GetAccountRecords returns every account together with the bookings,
// booking types and stocks of accountID, read in one transaction.
func (s *StorageService) GetAccountRecords(ctx context.Context, accountID uint) (*AccountRecords, error) {
	out := &AccountRecords{
		Accounts:     []entities.Account{},
		Bookings:     []entities.Booking{},
		BookingTypes: []entities.BookingType{},
		Stocks:       []entities.Stock{},
	}
	err := s.tm.Execute(ctx, accountScope, database.ReadOnly, func(tx *database.Tx) error {
		accs, err := s.repos.Accounts().FindAll(ctx, tx)
		if err != nil {
			return err
		}
		bks, err := s.repos.Bookings().FindByAccount(ctx, accountID, tx)
		if err != nil {
			return err
		}
		types, err := s.repos.BookingTypes().FindByAccount(ctx, accountID, tx)
		if err != nil {
			return err
		}
		stks, err := s.repos.Stocks().FindByAccount(ctx, accountID, tx)
		if err != nil {
			return err
		}
		out.Accounts = append(out.Accounts, accs...)
		out.Bookings = append(out.Bookings, bks...)
		out.BookingTypes = append(out.BookingTypes, types...)
		out.Stocks = append(out.Stocks, stks...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteAccountRecords removes the account and everything it owns in one
// transaction. Dependents go first: bookings, booking types, stocks, then
// the account itself.
func (s *StorageService) DeleteAccountRecords(ctx context.Context, accountID uint) (*DeleteResult, error) {
	res := &DeleteResult{AccountID: accountID}
	err := s.tm.Execute(ctx, accountScope, database.ReadWrite, func(tx *database.Tx) error {
		var err error
		if res.Bookings, err = s.repos.Bookings().DeleteByAccount(ctx, accountID, tx); err != nil {
			return err
		}
		if res.BookingTypes, err = s.repos.BookingTypes().DeleteByAccount(ctx, accountID, tx); err != nil {
			return err
		}
		if res.Stocks, err = s.repos.Stocks().DeleteByAccount(ctx, accountID, tx); err != nil {
			return err
		}
		return s.repos.Accounts().Delete(ctx, accountID, tx)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[DB] Deleted account %d with %d bookings, %d booking types, %d stocks",
		accountID, res.Bookings, res.BookingTypes, res.Stocks)
	return res, nil
}

// AtomicImport applies descriptors all-or-nothing.
func (s *StorageService) AtomicImport(ctx context.Context, descriptors []batch.Descriptor) error {
	return s.batch.ExecuteAtomic(ctx, descriptors)
}

// BatchOperations applies ops to a single store atomically.
func (s *StorageService) BatchOperations(ctx context.Context, store entities.StoreName, ops []batch.Operation) error {
	return s.batch.Execute(ctx, store, ops)
}

// Batch starts a fluent multi-store batch.
func (s *StorageService) Batch() *batch.Builder {
	return batch.NewBuilder(s.batch)
}

func (s *StorageService) HealthCheck(ctx context.Context) (*health.Result, error) {
	return s.health.PerformHealthCheck(ctx)
}

func (s *StorageService) RepairDatabase(ctx context.Context) (*health.RepairResult, error) {
	return s.health.RepairDatabase(ctx)
}
