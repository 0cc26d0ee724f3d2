// Package accounts provides database operations for depot accounts.
//
// # Usage
//
//	repo := accounts.NewRepository(tm)
//	id, err := repo.Save(ctx, entities.Account{IBAN: "DE0001"}, nil)
package accounts

import (
	"context"

	"github.com/mrlokans/depot/internal/database"
	"github.com/mrlokans/depot/internal/entities"
)

// Repository handles all account database operations.
type Repository struct {
	*database.BaseRepository[entities.Account]
}

// NewRepository creates a new accounts repository.
func NewRepository(tm *database.TransactionManager) *Repository {
	return &Repository{BaseRepository: database.NewBaseRepository[entities.Account](tm)}
}

// FindByIBAN returns the account with the given IBAN, or nil.
func (r *Repository) FindByIBAN(ctx context.Context, iban string, tx *database.Tx) (*entities.Account, error) {
	found, err := r.FindBy(ctx, "iban", iban, tx)
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return &found[0], nil
}

// IDs returns the set of existing account identities.
func (r *Repository) IDs(ctx context.Context, tx *database.Tx) (map[uint]struct{}, error) {
	all, err := r.FindAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	ids := make(map[uint]struct{}, len(all))
	for _, a := range all {
		ids[a.ID] = struct{}{}
	}
	return ids, nil
}
