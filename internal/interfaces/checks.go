package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/depot/internal/database"
	"github.com/mrlokans/depot/internal/database/accounts"
	"github.com/mrlokans/depot/internal/database/bookings"
	"github.com/mrlokans/depot/internal/database/bookingtypes"
	"github.com/mrlokans/depot/internal/database/stocks"
	"github.com/mrlokans/depot/internal/entities"
	"github.com/mrlokans/depot/internal/http"
	"github.com/mrlokans/depot/internal/scheduler"
	"github.com/mrlokans/depot/internal/services"
	"github.com/mrlokans/depot/internal/tasks"
)

// =============================================================================
// Records
// =============================================================================

var _ entities.Record = entities.Account{}
var _ entities.Owned = entities.Booking{}
var _ entities.Owned = entities.BookingType{}
var _ entities.Owned = entities.Stock{}

// =============================================================================
// Data Access Layer
// =============================================================================

// Repository implementations
var _ database.Repository = (*accounts.Repository)(nil)
var _ database.Repository = (*bookings.Repository)(nil)
var _ database.Repository = (*bookingtypes.Repository)(nil)
var _ database.Repository = (*stocks.Repository)(nil)

// =============================================================================
// Storage Facade
// =============================================================================

var _ services.AccountReader = (*services.StorageService)(nil)
var _ services.AccountDeleter = (*services.StorageService)(nil)
var _ services.Importer = (*services.StorageService)(nil)
var _ services.HealthChecker = (*services.StorageService)(nil)

var _ http.HealthStore = (*services.StorageService)(nil)
var _ http.AccountStore = (*services.StorageService)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ tasks.Repairer = (*services.StorageService)(nil)
var _ tasks.BatchImporter = (*services.StorageService)(nil)
var _ http.TaskQueue = (*tasks.Client)(nil)
var _ scheduler.HealthChecker = (*services.StorageService)(nil)
var _ scheduler.RepairEnqueuer = (*tasks.Client)(nil)
