// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Records
//
//   - entities.Record: a value kept in one of the four stores
//   - entities.Owned: a record that references an account
//
// ## Data Access Interfaces
//
//   - database.Repository: store-independent view of a repository
//     (internal/database/repository.go), implemented by the typed
//     repositories built on database.BaseRepository
//
// ## Facade Interfaces
//
//   - AccountReader, AccountDeleter, Importer, HealthChecker
//     (internal/services/interfaces.go), all implemented by StorageService
//   - HealthStore, AccountStore, TaskQueue: the slices of the facade and the
//     task client the HTTP layer depends on (internal/http)
//
// ## Background Work
//
//   - tasks.Repairer, tasks.BatchImporter: what queued tasks call into
//   - scheduler.HealthChecker, scheduler.RepairEnqueuer: what the periodic
//     health check needs
//
// # Adding a Store
//
//  1. Add the record type to internal/entities and list it in entities.Stores
//  2. Declare its indexes in database.Schema and a migration step that creates them
//  3. Add a typed repository package and expose it through repositories.Factory
//  4. Add the store to the owned-store scan in internal/health if it references accounts
//
// Compile-time checks for all of the above live in checks.go.
package interfaces
