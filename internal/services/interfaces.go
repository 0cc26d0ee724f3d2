package services

import (
	"context"

	"github.com/mrlokans/depot/internal/batch"
	"github.com/mrlokans/depot/internal/entities"
	"github.com/mrlokans/depot/internal/health"
)

// AccountReader fetches the records of one account.
// Use this interface when you only need to query.
type AccountReader interface {
	GetAccountRecords(ctx context.Context, accountID uint) (*AccountRecords, error)
}

// AccountDeleter removes an account with everything that references it.
type AccountDeleter interface {
	DeleteAccountRecords(ctx context.Context, accountID uint) (*DeleteResult, error)
}

// Importer persists validated batches.
type Importer interface {
	AtomicImport(ctx context.Context, descriptors []batch.Descriptor) error
}

// HealthChecker inspects and repairs referential integrity.
type HealthChecker interface {
	HealthCheck(ctx context.Context) (*health.Result, error)
	RepairDatabase(ctx context.Context) (*health.RepairResult, error)
}

// AccountRecords is the result of GetAccountRecords.
type AccountRecords struct {
	Accounts     []entities.Account     `json:"accounts"`
	Bookings     []entities.Booking     `json:"bookings"`
	BookingTypes []entities.BookingType `json:"bookingTypes"`
	Stocks       []entities.Stock       `json:"stocks"`
}

// DeleteResult contains the outcome of an account deletion.
type DeleteResult struct {
	AccountID    uint `json:"accountId"`
	Bookings     int  `json:"bookings"`
	BookingTypes int  `json:"bookingTypes"`
	Stocks       int  `json:"stocks"`
}
