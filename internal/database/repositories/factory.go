// Package repositories builds and caches one repository per store.
package repositories

import (
	"fmt"
	"sync"

	"github.com/mrlokans/depot/internal/database"
	"github.com/mrlokans/depot/internal/database/accounts"
	"github.com/mrlokans/depot/internal/database/bookings"
	"github.com/mrlokans/depot/internal/database/bookingtypes"
	"github.com/mrlokans/depot/internal/database/stocks"
	"github.com/mrlokans/depot/internal/entities"
)

// Factory lazily constructs repositories. Each store gets exactly one
// instance per factory.
type Factory struct {
	tm *database.TransactionManager

	mu           sync.Mutex
	accounts     *accounts.Repository
	bookings     *bookings.Repository
	bookingTypes *bookingtypes.Repository
	stocks       *stocks.Repository
}

// NewFactory creates a factory whose repositories run on tm.
func NewFactory(tm *database.TransactionManager) *Factory {
	return &Factory{tm: tm}
}

// Accounts returns the accounts repository.
func (f *Factory) Accounts() *accounts.Repository {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.accounts == nil {
		f.accounts = accounts.NewRepository(f.tm)
	}
	return f.accounts
}

// Bookings returns the bookings repository.
func (f *Factory) Bookings() *bookings.Repository {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bookings == nil {
		f.bookings = bookings.NewRepository(f.tm)
	}
	return f.bookings
}

// BookingTypes returns the booking types repository.
func (f *Factory) BookingTypes() *bookingtypes.Repository {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bookingTypes == nil {
		f.bookingTypes = bookingtypes.NewRepository(f.tm)
	}
	return f.bookingTypes
}

// Stocks returns the stocks repository.
func (f *Factory) Stocks() *stocks.Repository {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stocks == nil {
		f.stocks = stocks.NewRepository(f.tm)
	}
	return f.stocks
}

// Get returns the repository of store.
func (f *Factory) Get(store entities.StoreName) (database.Repository, error) {
	switch store {
	case entities.StoreAccounts:
		return f.Accounts(), nil
	case entities.StoreBookings:
		return f.Bookings(), nil
	case entities.StoreBookingTypes:
		return f.BookingTypes(), nil
	case entities.StoreStocks:
		return f.Stocks(), nil
	}
	return nil, fmt.Errorf("no repository for store %q", store)
}

// All returns every repository keyed by store.
func (f *Factory) All() map[entities.StoreName]database.Repository {
	all := make(map[entities.StoreName]database.Repository, len(entities.Stores))
	for _, store := range entities.Stores {
		repo, _ := f.Get(store)
		all[store] = repo
	}
	return all
}
