// Package bookings provides database operations for account bookings.
//
// Bookings reference an account, a booking type and optionally a stock.
// Only the account reference is checked, by the health service.
package bookings

import (
	"context"
	"time"

	"github.com/mrlokans/depot/internal/database"
	"github.com/mrlokans/depot/internal/entities"
)

// Repository handles all booking database operations.
type Repository struct {
	*database.BaseRepository[entities.Booking]
}

// NewRepository creates a new bookings repository.
func NewRepository(tm *database.TransactionManager) *Repository {
	return &Repository{BaseRepository: database.NewBaseRepository[entities.Booking](tm)}
}

// FindByAccount returns the bookings of an account.
func (r *Repository) FindByAccount(ctx context.Context, accountID uint, tx *database.Tx) ([]entities.Booking, error) {
	return r.FindBy(ctx, "accountId", accountID, tx)
}

// FindByStock returns the bookings referencing a stock.
func (r *Repository) FindByStock(ctx context.Context, stockID uint, tx *database.Tx) ([]entities.Booking, error) {
	return r.FindBy(ctx, "stockId", stockID, tx)
}

// FindByBookingType returns the bookings of a booking type.
func (r *Repository) FindByBookingType(ctx context.Context, bookingTypeID uint, tx *database.Tx) ([]entities.Booking, error) {
	return r.FindBy(ctx, "bookingTypeId", bookingTypeID, tx)
}

// FindByDate returns the bookings booked at exactly date.
func (r *Repository) FindByDate(ctx context.Context, date time.Time, tx *database.Tx) ([]entities.Booking, error) {
	return r.FindBy(ctx, "bookDate", date, tx)
}

// DeleteByAccount removes every booking of an account.
func (r *Repository) DeleteByAccount(ctx context.Context, accountID uint, tx *database.Tx) (int, error) {
	return r.DeleteBy(ctx, "accountId", accountID, tx)
}

// CountByAccount counts the bookings of an account.
func (r *Repository) CountByAccount(ctx context.Context, accountID uint, tx *database.Tx) (int64, error) {
	return r.CountBy(ctx, "accountId", accountID, tx)
}
