package database

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/depot/internal/entities"
)

// cursorBatchSize is the number of rows a cursor reads per step.
const cursorBatchSize = 100

// rowKey is the projection a cursor walks.
type rowKey struct {
	ID uint `gorm:"primaryKey"`
}

var (
	errTxFinished   = errors.New("transaction has finished")
	errReadOnlyTx   = errors.New("write in a readonly transaction")
	errStoreOutside = errors.New("store is not part of the transaction")
)

// Tx is an open transaction over a fixed set of stores. Every engine
// primitive goes through Tx, which turns engine outcomes into
// RequestFailed errors. A Tx is only valid inside the function passed to
// TransactionManager.Execute.
type Tx struct {
	id     string
	db     *gorm.DB
	stores []entities.StoreName
	mode   Mode
	ctx    context.Context

	aborted  atomic.Bool
	finished atomic.Bool
}

// ID identifies the transaction in logs.
func (tx *Tx) ID() string { return tx.id }

// Mode returns the access mode.
func (tx *Tx) Mode() Mode { return tx.mode }

// Stores returns the stores the transaction spans.
func (tx *Tx) Stores() []entities.StoreName { return tx.stores }

// Context returns the transaction's context, done on abort or timeout.
func (tx *Tx) Context() context.Context { return tx.ctx }

// Includes reports whether store is part of the transaction.
func (tx *Tx) Includes(store entities.StoreName) bool {
	return slices.Contains(tx.stores, store)
}

// Abort marks the transaction for rollback. Further requests fail and the
// surrounding Execute returns TransactionFailed.
func (tx *Tx) Abort() {
	tx.aborted.Store(true)
}

// Aborted reports whether Abort was called.
func (tx *Tx) Aborted() bool {
	return tx.aborted.Load()
}

func (tx *Tx) finish() {
	tx.finished.Store(true)
}

func (tx *Tx) run(fn func(tx *Tx) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in transaction: %v", r)
		}
	}()
	return fn(tx)
}

// request is the adapter every primitive is built on.
func (tx *Tx) request(store entities.StoreName, write bool, op string, fn func(db *gorm.DB) error) error {
	switch {
	case tx.finished.Load():
		return requestFailed(errTxFinished, "%s on %s", op, store)
	case tx.Aborted():
		return requestFailed(ErrAborted, "%s on %s", op, store)
	case !tx.Includes(store):
		return requestFailed(errStoreOutside, "%s on %s", op, store)
	case write && tx.mode == ReadOnly:
		return requestFailed(errReadOnlyTx, "%s on %s", op, store)
	}
	if err := fn(tx.db); err != nil {
		return requestFailed(err, "%s on %s", op, store)
	}
	return nil
}

// Get loads the record with key id into dest. It reports whether it exists.
func (tx *Tx) Get(store entities.StoreName, id uint, dest any) (bool, error) {
	var found bool
	err := tx.request(store, false, "get", func(db *gorm.DB) error {
		res := db.Table(string(store)).Where("id = ?", id).Limit(1).Find(dest)
		found = res.RowsAffected > 0
		return res.Error
	})
	return found, err
}

// GetAll loads every record of store into dest, a pointer to a slice.
func (tx *Tx) GetAll(store entities.StoreName, dest any) error {
	return tx.request(store, false, "getAll", func(db *gorm.DB) error {
		return db.Table(string(store)).Order("id").Find(dest).Error
	})
}

// GetWhere loads the records whose columns equal values, as an index
// range lookup, into dest.
func (tx *Tx) GetWhere(store entities.StoreName, columns []string, values []any, dest any) error {
	return tx.request(store, false, "getWhere", func(db *gorm.DB) error {
		q, err := where(db.Table(string(store)), columns, values)
		if err != nil {
			return err
		}
		return q.Order("id").Find(dest).Error
	})
}

// Count returns the number of records in store.
func (tx *Tx) Count(store entities.StoreName) (int64, error) {
	var n int64
	err := tx.request(store, false, "count", func(db *gorm.DB) error {
		return db.Table(string(store)).Count(&n).Error
	})
	return n, err
}

// CountWhere counts the records whose columns equal values.
func (tx *Tx) CountWhere(store entities.StoreName, columns []string, values []any) (int64, error) {
	var n int64
	err := tx.request(store, false, "countWhere", func(db *gorm.DB) error {
		q, err := where(db.Table(string(store)), columns, values)
		if err != nil {
			return err
		}
		return q.Count(&n).Error
	})
	return n, err
}

// Add inserts value. A zero identity lets the engine assign one, which is
// written back into value when it is a pointer.
func (tx *Tx) Add(store entities.StoreName, value any) error {
	return tx.request(store, true, "add", func(db *gorm.DB) error {
		return db.Table(string(store)).Create(pointerTo(value)).Error
	})
}

// Put inserts or fully replaces value by its identity.
func (tx *Tx) Put(store entities.StoreName, value any) error {
	return tx.request(store, true, "put", func(db *gorm.DB) error {
		return db.Table(string(store)).Save(pointerTo(value)).Error
	})
}

// Delete removes the record with key id. Deleting a missing key is not an error.
func (tx *Tx) Delete(store entities.StoreName, id uint) error {
	return tx.request(store, true, "delete", func(db *gorm.DB) error {
		return db.Table(string(store)).Where("id = ?", id).Delete(entities.NewRecord(store)).Error
	})
}

// DeleteWhere walks the records whose columns equal values with a cursor
// and deletes them. It returns the number of deleted records.
func (tx *Tx) DeleteWhere(store entities.StoreName, columns []string, values []any) (int, error) {
	deleted := 0
	err := tx.request(store, true, "deleteWhere", func(db *gorm.DB) error {
		q, err := where(db.Table(string(store)), columns, values)
		if err != nil {
			return err
		}
		var keys []rowKey
		res := q.Select("id").FindInBatches(&keys, cursorBatchSize, func(_ *gorm.DB, _ int) error {
			ids := make([]uint, len(keys))
			for i, k := range keys {
				ids[i] = k.ID
			}
			if err := db.Table(string(store)).Where("id IN ?", ids).Delete(entities.NewRecord(store)).Error; err != nil {
				return err
			}
			deleted += len(ids)
			return nil
		})
		return res.Error
	})
	return deleted, err
}

// Clear removes every record of store.
func (tx *Tx) Clear(store entities.StoreName) error {
	return tx.request(store, true, "clear", func(db *gorm.DB) error {
		return db.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Table(string(store)).Delete(entities.NewRecord(store)).Error
	})
}

func where(q *gorm.DB, columns []string, values []any) (*gorm.DB, error) {
	if len(columns) != len(values) {
		return nil, fmt.Errorf("index has %d columns, got %d values", len(columns), len(values))
	}
	for i, col := range columns {
		value := values[i]
		if t, ok := value.(time.Time); ok {
			value = t.UTC()
		}
		q = q.Where(quoteIdent(col)+" = ?", value)
	}
	return q, nil
}

// pointerTo returns value itself when it is a pointer, else a pointer to a copy.
func pointerTo(value any) any {
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Pointer {
		return value
	}
	p := reflect.New(v.Type())
	p.Elem().Set(v)
	return p.Interface()
}
