package batch

import (
	"github.com/mrlokans/depot/internal/database"
	"github.com/mrlokans/depot/internal/entities"
)

// Kind names an operation variant.
type Kind string

const (
	KindAdd    Kind = "add"
	KindPut    Kind = "put"
	KindDelete Kind = "delete"
	KindClear  Kind = "clear"
)

// Operation is one step of a batch. The set of variants is closed: Add,
// Put, Delete and Clear. Each variant carries its own validation and
// execution, so a variant cannot exist without being executable.
type Operation interface {
	Kind() Kind
	validate(store entities.StoreName) error
	apply(tx *database.Tx, store entities.StoreName) error
}

// Add inserts Record. It fails when a record with the same identity exists.
type Add struct {
	Record entities.Record
}

// Put inserts Record or replaces the record with the same identity.
type Put struct {
	Record entities.Record
}

// Delete removes the record with identity Key.
type Delete struct {
	Key uint
}

// Clear removes every record of the store.
type Clear struct{}

func (Add) Kind() Kind    { return KindAdd }
func (Put) Kind() Kind    { return KindPut }
func (Delete) Kind() Kind { return KindDelete }
func (Clear) Kind() Kind  { return KindClear }

func (op Add) validate(store entities.StoreName) error {
	return validateRecord(KindAdd, op.Record, store)
}

func (op Put) validate(store entities.StoreName) error {
	return validateRecord(KindPut, op.Record, store)
}

func (op Delete) validate(store entities.StoreName) error {
	if op.Key == 0 {
		return database.InvalidBatchError("delete operation on %s is missing its key", store)
	}
	return nil
}

func (Clear) validate(entities.StoreName) error { return nil }

func (op Add) apply(tx *database.Tx, store entities.StoreName) error {
	return tx.Add(store, op.Record)
}

func (op Put) apply(tx *database.Tx, store entities.StoreName) error {
	return tx.Put(store, op.Record)
}

func (op Delete) apply(tx *database.Tx, store entities.StoreName) error {
	return tx.Delete(store, op.Key)
}

func (Clear) apply(tx *database.Tx, store entities.StoreName) error {
	return tx.Clear(store)
}

func validateRecord(kind Kind, rec entities.Record, store entities.StoreName) error {
	if rec == nil {
		return database.InvalidBatchError("%s operation on %s has no record", kind, store)
	}
	if rec.StoreName() != store {
		return database.InvalidBatchError("%s operation on %s carries a %s record", kind, store, rec.StoreName())
	}
	return nil
}

func (k Kind) String() string {
	return string(k)
}

// ParseKind validates an operation kind name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindAdd, KindPut, KindDelete, KindClear:
		return k, nil
	}
	return "", database.UnknownOperationTypeError(s)
}
