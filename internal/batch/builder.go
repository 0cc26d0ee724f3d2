package batch

import (
	"context"

	"github.com/mrlokans/depot/internal/entities"
)

// Builder accumulates operations per store for a single atomic batch.
//
//	err := svc.Batch().
//		Insert(entities.StoreAccounts, account).
//		Insert(entities.StoreStocks, stock).
//		Execute(ctx)
type Builder struct {
	svc    *Service
	order  []entities.StoreName
	groups map[entities.StoreName][]Operation
}

// NewBuilder creates an empty builder executing on svc.
func NewBuilder(svc *Service) *Builder {
	return &Builder{svc: svc, groups: make(map[entities.StoreName][]Operation)}
}

func (b *Builder) push(store entities.StoreName, op Operation) *Builder {
	if _, ok := b.groups[store]; !ok {
		b.order = append(b.order, store)
	}
	b.groups[store] = append(b.groups[store], op)
	return b
}

// Insert queues an add of rec.
func (b *Builder) Insert(store entities.StoreName, rec entities.Record) *Builder {
	return b.push(store, Add{Record: rec})
}

// Update queues a put of rec.
func (b *Builder) Update(store entities.StoreName, rec entities.Record) *Builder {
	return b.push(store, Put{Record: rec})
}

// Remove queues a delete of key.
func (b *Builder) Remove(store entities.StoreName, key uint) *Builder {
	return b.push(store, Delete{Key: key})
}

// Clear queues a clear of store.
func (b *Builder) Clear(store entities.StoreName) *Builder {
	return b.push(store, Clear{})
}

// Descriptors flattens the queued operations, stores in first-use order.
func (b *Builder) Descriptors() []Descriptor {
	descriptors := make([]Descriptor, 0, len(b.order))
	for _, store := range b.order {
		descriptors = append(descriptors, Descriptor{Store: store, Operations: b.groups[store]})
	}
	return descriptors
}

// Execute runs the queued operations atomically.
func (b *Builder) Execute(ctx context.Context) error {
	return b.svc.ExecuteAtomic(ctx, b.Descriptors())
}
