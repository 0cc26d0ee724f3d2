package database

import (
	"context"
	"fmt"

	"github.com/mrlokans/depot/internal/entities"
)

// Repository is the record-type independent view of a store repository.
type Repository interface {
	Store() entities.StoreName
	Count(ctx context.Context, tx *Tx) (int64, error)
	Records(ctx context.Context, tx *Tx) ([]entities.Record, error)
	Delete(ctx context.Context, id uint, tx *Tx) error
}

// BaseRepository implements typed CRUD and index lookups over one store.
//
// Every method takes an optional transaction. With a nil tx the method runs
// in a transaction of its own; otherwise it joins tx, which lets callers
// compose several repository calls into one atomic unit of work.
type BaseRepository[T entities.Record] struct {
	tm     *TransactionManager
	schema StoreSchema
}

// NewBaseRepository creates a repository for the store of T.
func NewBaseRepository[T entities.Record](tm *TransactionManager) *BaseRepository[T] {
	var zero T
	schema, ok := StoreSchemaFor(zero.StoreName())
	if !ok {
		panic(fmt.Sprintf("database: no schema for store %s", zero.StoreName()))
	}
	return &BaseRepository[T]{tm: tm, schema: schema}
}

// Store returns the store name.
func (r *BaseRepository[T]) Store() entities.StoreName {
	return r.schema.Name
}

// Schema returns the store declaration.
func (r *BaseRepository[T]) Schema() StoreSchema {
	return r.schema
}

func (r *BaseRepository[T]) run(ctx context.Context, tx *Tx, mode Mode, fn func(tx *Tx) error) error {
	if tx != nil {
		return fn(tx)
	}
	return r.tm.Execute(ctx, []entities.StoreName{r.schema.Name}, mode, fn)
}

// FindByID returns the record with identity id, or nil when absent.
func (r *BaseRepository[T]) FindByID(ctx context.Context, id uint, tx *Tx) (*T, error) {
	var (
		record T
		found  bool
	)
	err := r.run(ctx, tx, ReadOnly, func(tx *Tx) error {
		var err error
		found, err = tx.Get(r.schema.Name, id, &record)
		return err
	})
	if err != nil || !found {
		return nil, err
	}
	return &record, nil
}

// FindAll returns every record in store order.
func (r *BaseRepository[T]) FindAll(ctx context.Context, tx *Tx) ([]T, error) {
	var records []T
	err := r.run(ctx, tx, ReadOnly, func(tx *Tx) error {
		return tx.GetAll(r.schema.Name, &records)
	})
	return records, err
}

// FindBy returns the records whose field equals value. The field must have
// a declared single-field index.
func (r *BaseRepository[T]) FindBy(ctx context.Context, field string, value any, tx *Tx) ([]T, error) {
	idx, ok := r.schema.IndexForField(field)
	if !ok {
		return nil, NoIndexError(r.schema.Name, field)
	}
	return r.findByIndex(ctx, idx, []any{value}, tx)
}

// FindByIndex looks records up through the named index, compound indexes
// taking one value per indexed field.
func (r *BaseRepository[T]) FindByIndex(ctx context.Context, index string, values []any, tx *Tx) ([]T, error) {
	idx, ok := r.schema.Index(index)
	if !ok {
		return nil, NoIndexError(r.schema.Name, index)
	}
	return r.findByIndex(ctx, idx, values, tx)
}

func (r *BaseRepository[T]) findByIndex(ctx context.Context, idx IndexSchema, values []any, tx *Tx) ([]T, error) {
	var records []T
	err := r.run(ctx, tx, ReadOnly, func(tx *Tx) error {
		return tx.GetWhere(r.schema.Name, idx.Columns, values, &records)
	})
	return records, err
}

// Save writes entity. With an identity it replaces the stored record,
// otherwise the engine assigns one. The identity is returned; entity itself
// is not modified.
func (r *BaseRepository[T]) Save(ctx context.Context, entity T, tx *Tx) (uint, error) {
	record := entity
	err := r.run(ctx, tx, ReadWrite, func(tx *Tx) error {
		if record.GetID() != 0 {
			return tx.Put(r.schema.Name, &record)
		}
		return tx.Add(r.schema.Name, &record)
	})
	if err != nil {
		return 0, err
	}
	return record.GetID(), nil
}

// Delete removes the record with identity id.
func (r *BaseRepository[T]) Delete(ctx context.Context, id uint, tx *Tx) error {
	return r.run(ctx, tx, ReadWrite, func(tx *Tx) error {
		return tx.Delete(r.schema.Name, id)
	})
}

// DeleteBy deletes, with an index cursor, every record whose field equals
// value and returns how many were removed.
func (r *BaseRepository[T]) DeleteBy(ctx context.Context, field string, value any, tx *Tx) (int, error) {
	idx, ok := r.schema.IndexForField(field)
	if !ok {
		return 0, NoIndexError(r.schema.Name, field)
	}
	var deleted int
	err := r.run(ctx, tx, ReadWrite, func(tx *Tx) error {
		var err error
		deleted, err = tx.DeleteWhere(r.schema.Name, idx.Columns, []any{value})
		return err
	})
	return deleted, err
}

// Count returns the number of records in the store.
func (r *BaseRepository[T]) Count(ctx context.Context, tx *Tx) (int64, error) {
	var n int64
	err := r.run(ctx, tx, ReadOnly, func(tx *Tx) error {
		var err error
		n, err = tx.Count(r.schema.Name)
		return err
	})
	return n, err
}

// CountBy counts the records whose indexed field equals value.
func (r *BaseRepository[T]) CountBy(ctx context.Context, field string, value any, tx *Tx) (int64, error) {
	idx, ok := r.schema.IndexForField(field)
	if !ok {
		return 0, NoIndexError(r.schema.Name, field)
	}
	var n int64
	err := r.run(ctx, tx, ReadOnly, func(tx *Tx) error {
		var err error
		n, err = tx.CountWhere(r.schema.Name, idx.Columns, []any{value})
		return err
	})
	return n, err
}

// Records returns every record as the untyped entities.Record.
func (r *BaseRepository[T]) Records(ctx context.Context, tx *Tx) ([]entities.Record, error) {
	typed, err := r.FindAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	records := make([]entities.Record, len(typed))
	for i, rec := range typed {
		records[i] = rec
	}
	return records, nil
}
