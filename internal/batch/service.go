// Package batch executes ordered add/put/delete/clear operations across
// several stores inside one atomic transaction.
package batch

import (
	"context"
	"log"

	"github.com/mrlokans/depot/internal/database"
	"github.com/mrlokans/depot/internal/entities"
)

// Descriptor groups the operations targeting one store.
type Descriptor struct {
	Store      entities.StoreName
	Operations []Operation
}

// Service runs batches on a TransactionManager.
type Service struct {
	tm *database.TransactionManager
}

// NewService creates a batch service.
func NewService(tm *database.TransactionManager) *Service {
	return &Service{tm: tm}
}

// ExecuteAtomic validates descriptors and then applies every operation, in
// order, inside a single readwrite transaction over all named stores.
// Either all operations persist or none does.
func (s *Service) ExecuteAtomic(ctx context.Context, descriptors []Descriptor) error {
	stores, err := Validate(descriptors)
	if err != nil {
		return err
	}

	ops := 0
	for _, d := range descriptors {
		ops += len(d.Operations)
	}

	err = s.tm.Execute(ctx, stores, database.ReadWrite, func(tx *database.Tx) error {
		for _, d := range descriptors {
			for _, op := range d.Operations {
				if err := op.apply(tx, d.Store); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("[BATCH] Applied %d operations across %d stores", ops, len(stores))
	return nil
}

// Execute runs ops against a single store atomically.
func (s *Service) Execute(ctx context.Context, store entities.StoreName, ops []Operation) error {
	return s.ExecuteAtomic(ctx, []Descriptor{{Store: store, Operations: ops}})
}

// Validate checks a batch without touching the engine and returns the
// distinct stores it spans, in first-seen order.
func Validate(descriptors []Descriptor) ([]entities.StoreName, error) {
	if len(descriptors) == 0 {
		return nil, database.InvalidBatchError("batch has no descriptors")
	}

	var stores []entities.StoreName
	seen := make(map[entities.StoreName]bool)
	for i, d := range descriptors {
		if !d.Store.Valid() {
			return nil, database.InvalidBatchError("descriptor %d names unknown store %q", i, d.Store)
		}
		if len(d.Operations) == 0 {
			return nil, database.InvalidBatchError("descriptor %d for %s has no operations", i, d.Store)
		}
		for j, op := range d.Operations {
			if op == nil {
				return nil, database.InvalidBatchError("descriptor %d for %s: operation %d is nil", i, d.Store, j)
			}
			if err := op.validate(d.Store); err != nil {
				return nil, err
			}
		}
		if !seen[d.Store] {
			seen[d.Store] = true
			stores = append(stores, d.Store)
		}
	}
	return stores, nil
}
