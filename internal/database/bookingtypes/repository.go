// Package bookingtypes provides database operations for booking types.
package bookingtypes

import (
	"context"

	"github.com/mrlokans/depot/internal/database"
	"github.com/mrlokans/depot/internal/entities"
)

// Repository handles all booking type database operations.
type Repository struct {
	*database.BaseRepository[entities.BookingType]
}

// NewRepository creates a new booking types repository.
func NewRepository(tm *database.TransactionManager) *Repository {
	return &Repository{BaseRepository: database.NewBaseRepository[entities.BookingType](tm)}
}

// FindByAccount returns the booking types of an account.
func (r *Repository) FindByAccount(ctx context.Context, accountID uint, tx *database.Tx) ([]entities.BookingType, error) {
	return r.FindBy(ctx, "accountId", accountID, tx)
}

// DeleteByAccount removes every booking type of an account.
func (r *Repository) DeleteByAccount(ctx context.Context, accountID uint, tx *database.Tx) (int, error) {
	return r.DeleteBy(ctx, "accountId", accountID, tx)
}

// CountByAccount counts the booking types of an account.
func (r *Repository) CountByAccount(ctx context.Context, accountID uint, tx *database.Tx) (int64, error) {
	return r.CountBy(ctx, "accountId", accountID, tx)
}
