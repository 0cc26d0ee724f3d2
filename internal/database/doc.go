// Package database provides the storage engine for the depot.
//
// # Architecture
//
// Four object stores (accounts, bookings, bookingTypes, stocks) live in
// one SQLite file. Each store is a table keyed by an engine-assigned id;
// its declared indexes are SQLite indexes named <store>_<index>.
//
//	database/
//	├── connection.go    # ConnectionManager: open, upgrade, version watch
//	├── migrator.go      # Versioned, idempotent schema steps
//	├── schema.go        # Store and index declarations
//	├── transaction.go   # TransactionManager: atomic units of work
//	├── request.go       # Tx: the single adapter over engine primitives
//	├── repository.go    # BaseRepository[T]: typed CRUD and index lookups
//	├── accounts/        # Typed repositories, one per store
//	├── bookings/
//	├── bookingtypes/
//	├── stocks/
//	└── repositories/    # Factory caching one repository per store
//
// # Transactions
//
// All reads and writes run inside a Tx. Repository methods take an
// optional *Tx: nil runs the call in a transaction of its own, a shared
// Tx makes several calls commit or roll back together:
//
//	conn := database.NewConnectionManager(database.Options{Path: "./depot.db"})
//	if err := conn.Connect(ctx); err != nil {
//		return err
//	}
//	tm := database.NewTransactionManager(conn, 30*time.Second)
//	repos := repositories.NewFactory(tm)
//
//	err := tm.Execute(ctx, entities.Stores, database.ReadWrite, func(tx *database.Tx) error {
//		id, err := repos.Accounts().Save(ctx, account, tx)
//		if err != nil {
//			return err
//		}
//		stock.AccountID = id
//		_, err = repos.Stocks().Save(ctx, stock, tx)
//		return err
//	})
//
// # Errors
//
// Failures surface as *Error with a Code. Connection, transaction and
// request failures are recoverable; NoIndex, InvalidBatch and
// UnknownOperationType indicate a caller bug. Compare with errors.Is
// against the Err* sentinels.
package database
