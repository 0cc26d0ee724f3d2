// Package health detects and repairs referential-integrity violations.
//
// Every booking, booking type and stock must reference an existing
// account. Records that do not are orphaned; the check reports them and
// the repair deletes them.
package health

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mrlokans/depot/internal/database"
	"github.com/mrlokans/depot/internal/database/repositories"
	"github.com/mrlokans/depot/internal/entities"
)

// IssueType classifies an integrity issue.
type IssueType string

const (
	IssueOrphanedRecords IssueType = "orphaned_records"
)

// Severity of an issue.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Issue is one detected problem.
type Issue struct {
	Type     IssueType          `json:"type"`
	Severity Severity           `json:"severity"`
	Store    entities.StoreName `json:"store"`
	Count    int                `json:"count"`
	Details  string             `json:"details"`
}

// Stats holds raw counts gathered by a check.
type Stats struct {
	Accounts     int                        `json:"accounts"`
	Bookings     int                        `json:"bookings"`
	BookingTypes int                        `json:"bookingTypes"`
	Stocks       int                        `json:"stocks"`
	Orphans      map[entities.StoreName]int `json:"orphans"`
}

// Result is the outcome of a health check.
type Result struct {
	Healthy   bool      `json:"healthy"`
	Issues    []Issue   `json:"issues"`
	Stats     Stats     `json:"stats"`
	CheckedAt time.Time `json:"checkedAt"`
}

// RepairError records an issue that could not be fixed.
type RepairError struct {
	Issue Issue  `json:"issue"`
	Error string `json:"error"`
}

// RepairResult is the outcome of a repair run.
type RepairResult struct {
	Fixed   int           `json:"fixed"`
	Errors  []RepairError `json:"errors"`
	Healthy bool          `json:"healthy"`
}

// ownedStores are the stores whose records reference an account.
var ownedStores = []entities.StoreName{
	entities.StoreBookings,
	entities.StoreBookingTypes,
	entities.StoreStocks,
}

// Service runs integrity checks and repairs.
type Service struct {
	tm    *database.TransactionManager
	repos *repositories.Factory

	// removeStore deletes the orphans of one store and reports how many.
	removeStore func(ctx context.Context, store entities.StoreName) (int, error)
}

// NewService creates a health service.
func NewService(tm *database.TransactionManager, repos *repositories.Factory) *Service {
	s := &Service{tm: tm, repos: repos}
	s.removeStore = s.removeOrphans
	return s
}

// PerformHealthCheck loads every store in one readonly transaction and
// reports the records whose account does not exist.
func (s *Service) PerformHealthCheck(ctx context.Context) (*Result, error) {
	result := &Result{
		Issues:    []Issue{},
		Stats:     Stats{Orphans: make(map[entities.StoreName]int)},
		CheckedAt: time.Now(),
	}

	err := s.tm.Execute(ctx, entities.Stores, database.ReadOnly, func(tx *database.Tx) error {
		accountIDs, err := s.repos.Accounts().IDs(ctx, tx)
		if err != nil {
			return err
		}
		result.Stats.Accounts = len(accountIDs)

		for _, store := range ownedStores {
			records, err := s.ownedRecords(ctx, store, tx)
			if err != nil {
				return err
			}
			orphans := countOrphans(records, accountIDs)
			result.Stats.Orphans[store] = orphans
			switch store {
			case entities.StoreBookings:
				result.Stats.Bookings = len(records)
			case entities.StoreBookingTypes:
				result.Stats.BookingTypes = len(records)
			case entities.StoreStocks:
				result.Stats.Stocks = len(records)
			}
			if orphans > 0 {
				result.Issues = append(result.Issues, Issue{
					Type:     IssueOrphanedRecords,
					Severity: SeverityWarning,
					Store:    store,
					Count:    orphans,
					Details:  fmt.Sprintf("%d %s record(s) reference a non-existent account", orphans, store),
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Healthy = len(result.Issues) == 0
	if !result.Healthy {
		log.Printf("[HEALTH] Database check found %d issue(s)", len(result.Issues))
	}
	return result, nil
}

// RepairDatabase fixes the issues found by a fresh check. Each store is
// repaired in its own readwrite transaction; a failing store does not stop
// the others.
func (s *Service) RepairDatabase(ctx context.Context) (*RepairResult, error) {
	check, err := s.PerformHealthCheck(ctx)
	if err != nil {
		return nil, err
	}
	result := &RepairResult{Errors: []RepairError{}}
	if check.Healthy {
		result.Healthy = true
		return result, nil
	}

	for _, issue := range check.Issues {
		var (
			fixed int
			err   error
		)
		switch issue.Type {
		case IssueOrphanedRecords:
			fixed, err = s.removeStore(ctx, issue.Store)
		default:
			err = fmt.Errorf("no repair available for %s", issue.Type)
		}
		if err != nil {
			log.Printf("[HEALTH] Repair of %s in %s failed: %v", issue.Type, issue.Store, err)
			result.Errors = append(result.Errors, RepairError{Issue: issue, Error: err.Error()})
			continue
		}
		result.Fixed += fixed
		log.Printf("[HEALTH] Removed %d orphaned %s record(s)", fixed, issue.Store)
	}

	after, err := s.PerformHealthCheck(ctx)
	if err != nil {
		return result, err
	}
	result.Healthy = after.Healthy
	return result, nil
}

// removeOrphans deletes the orphans of store. The valid account set is
// read again inside the repair transaction so no stale data is acted on.
func (s *Service) removeOrphans(ctx context.Context, store entities.StoreName) (int, error) {
	repo, err := s.repos.Get(store)
	if err != nil {
		return 0, err
	}

	removed := 0
	err = s.tm.Execute(ctx, []entities.StoreName{entities.StoreAccounts, store}, database.ReadWrite, func(tx *database.Tx) error {
		accountIDs, err := s.repos.Accounts().IDs(ctx, tx)
		if err != nil {
			return err
		}
		records, err := s.ownedRecords(ctx, store, tx)
		if err != nil {
			return err
		}
		for _, rec := range records {
			if _, ok := accountIDs[rec.OwnerAccountID()]; ok {
				continue
			}
			if err := repo.Delete(ctx, rec.GetID(), tx); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (s *Service) ownedRecords(ctx context.Context, store entities.StoreName, tx *database.Tx) ([]entities.Owned, error) {
	repo, err := s.repos.Get(store)
	if err != nil {
		return nil, err
	}
	records, err := repo.Records(ctx, tx)
	if err != nil {
		return nil, err
	}
	owned := make([]entities.Owned, 0, len(records))
	for _, rec := range records {
		o, ok := rec.(entities.Owned)
		if !ok {
			return nil, fmt.Errorf("%s record %d has no owning account", store, rec.GetID())
		}
		owned = append(owned, o)
	}
	return owned, nil
}

func countOrphans(records []entities.Owned, accountIDs map[uint]struct{}) int {
	n := 0
	for _, rec := range records {
		if _, ok := accountIDs[rec.OwnerAccountID()]; !ok {
			n++
		}
	}
	return n
}
