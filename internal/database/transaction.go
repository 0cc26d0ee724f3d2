package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mrlokans/depot/internal/entities"
)

// Mode is the access mode of a transaction.
type Mode string

const (
	ReadOnly  Mode = "readonly"
	ReadWrite Mode = "readwrite"
)

const abortGrace = 100 * time.Millisecond

// ExecOption customises a single Execute call.
type ExecOption func(*execOptions)

type execOptions struct {
	timeout time.Duration
}

// WithTimeout aborts the transaction if it has not committed within d.
func WithTimeout(d time.Duration) ExecOption {
	return func(o *execOptions) {
		o.timeout = d
	}
}

// TransactionManager runs units of work inside engine transactions.
type TransactionManager struct {
	conn           *ConnectionManager
	defaultTimeout time.Duration
}

// NewTransactionManager creates a manager using conn for every transaction.
// A non-zero defaultTimeout applies to calls without WithTimeout.
func NewTransactionManager(conn *ConnectionManager, defaultTimeout time.Duration) *TransactionManager {
	return &TransactionManager{conn: conn, defaultTimeout: defaultTimeout}
}

// Connection returns the connection manager backing the transactions.
func (m *TransactionManager) Connection() *ConnectionManager {
	return m.conn
}

// Execute runs fn in a transaction over stores. It returns nil only once the
// transaction committed. An error from fn, a panic, Tx.Abort, context
// cancellation or the timeout roll the transaction back and yield a
// TransactionFailed error.
func (m *TransactionManager) Execute(ctx context.Context, stores []entities.StoreName, mode Mode, fn func(tx *Tx) error, opts ...ExecOption) error {
	o := execOptions{timeout: m.defaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	if len(stores) == 0 {
		return transactionFailed(errors.New("no stores given"), stores, mode)
	}
	for _, s := range stores {
		if !s.Valid() {
			return transactionFailed(fmt.Errorf("unknown store %q", s), stores, mode)
		}
	}
	if mode != ReadOnly && mode != ReadWrite {
		return transactionFailed(fmt.Errorf("invalid mode %q", mode), stores, mode)
	}

	db, err := m.conn.Database()
	if err != nil {
		return err
	}

	txCtx, cancel := context.WithCancel(ctx)
	if o.timeout > 0 {
		txCtx, cancel = context.WithTimeout(ctx, o.timeout)
	}
	defer cancel()

	tx := &Tx{
		id:     uuid.NewString(),
		stores: stores,
		mode:   mode,
		ctx:    txCtx,
	}

	done := make(chan error, 1)
	go func() {
		done <- db.WithContext(txCtx).Transaction(func(gtx *gorm.DB) error {
			tx.db = gtx
			defer tx.finish()
			if err := tx.run(fn); err != nil {
				return err
			}
			if tx.Aborted() {
				return ErrAborted
			}
			return nil
		})
	}()

	select {
	case err = <-done:
	case <-txCtx.Done():
		// The driver rolls back a transaction whose context is done. A commit
		// already in flight still gets abortGrace to report its outcome.
		tx.Abort()
		select {
		case err = <-done:
		case <-time.After(abortGrace):
			err = txCtx.Err()
			if errors.Is(err, context.DeadlineExceeded) {
				err = fmt.Errorf("timed out after %s: %w", o.timeout, err)
			}
		}
	}
	if err != nil {
		log.Printf("[TX] %s over %v (%s) aborted: %v", tx.id, stores, mode, err)
		return transactionFailed(err, stores, mode)
	}
	return nil
}

// ExecuteMultiple runs ops sequentially inside one transaction and returns
// their results in order.
func (m *TransactionManager) ExecuteMultiple(ctx context.Context, stores []entities.StoreName, mode Mode, ops ...func(tx *Tx) (any, error)) ([]any, error) {
	results := make([]any, 0, len(ops))
	err := m.Execute(ctx, stores, mode, func(tx *Tx) error {
		for i, op := range ops {
			res, err := op(tx)
			if err != nil {
				return fmt.Errorf("operation %d: %w", i, err)
			}
			results = append(results, res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
