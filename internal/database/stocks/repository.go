// Package stocks provides database operations for depot stocks.
//
// ISIN and symbol are unique per account: two accounts may hold the same
// stock, one account may not hold it twice.
package stocks

import (
	"context"

	"github.com/mrlokans/depot/internal/database"
	"github.com/mrlokans/depot/internal/entities"
)

// Repository handles all stock database operations.
type Repository struct {
	*database.BaseRepository[entities.Stock]
}

// NewRepository creates a new stocks repository.
func NewRepository(tm *database.TransactionManager) *Repository {
	return &Repository{BaseRepository: database.NewBaseRepository[entities.Stock](tm)}
}

// FindByAccount returns the stocks of an account.
func (r *Repository) FindByAccount(ctx context.Context, accountID uint, tx *database.Tx) ([]entities.Stock, error) {
	return r.FindBy(ctx, "accountId", accountID, tx)
}

// FindByISIN returns the stock with isin held by an account, or nil.
func (r *Repository) FindByISIN(ctx context.Context, accountID uint, isin string, tx *database.Tx) (*entities.Stock, error) {
	return r.first(r.FindByIndex(ctx, "uk3", []any{accountID, isin}, tx))
}

// FindBySymbol returns the stock with symbol held by an account, or nil.
func (r *Repository) FindBySymbol(ctx context.Context, accountID uint, symbol string, tx *database.Tx) (*entities.Stock, error) {
	return r.first(r.FindByIndex(ctx, "uk4", []any{accountID, symbol}, tx))
}

// FindByISINAnyAccount returns every stock with isin across all accounts.
func (r *Repository) FindByISINAnyAccount(ctx context.Context, isin string, tx *database.Tx) ([]entities.Stock, error) {
	return r.FindBy(ctx, "isin", isin, tx)
}

// FindFirstPage returns the stocks pinned to the first page.
func (r *Repository) FindFirstPage(ctx context.Context, tx *database.Tx) ([]entities.Stock, error) {
	return r.FindBy(ctx, "firstPage", true, tx)
}

// FindActive returns the stocks that are not faded out.
func (r *Repository) FindActive(ctx context.Context, tx *database.Tx) ([]entities.Stock, error) {
	return r.FindBy(ctx, "fadeOut", false, tx)
}

// DeleteByAccount removes every stock of an account.
func (r *Repository) DeleteByAccount(ctx context.Context, accountID uint, tx *database.Tx) (int, error) {
	return r.DeleteBy(ctx, "accountId", accountID, tx)
}

// CountByAccount counts the stocks of an account.
func (r *Repository) CountByAccount(ctx context.Context, accountID uint, tx *database.Tx) (int64, error) {
	return r.CountBy(ctx, "accountId", accountID, tx)
}

func (r *Repository) first(found []entities.Stock, err error) (*entities.Stock, error) {
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return &found[0], nil
}
