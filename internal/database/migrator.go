package database

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/depot/internal/entities"
)

// UpgradeEvent describes a physical schema upgrade.
type UpgradeEvent struct {
	OldVersion int
	NewVersion int
}

// MigrationStep is one version-gated schema change. A step runs during an
// upgrade whose OldVersion is below Version. Steps must be idempotent.
type MigrationStep struct {
	Name    string
	Version int
	Apply   func(tx *gorm.DB) error
}

// Migrator owns the ordered list of schema migration steps.
type Migrator struct {
	steps []MigrationStep
}

// NewMigrator returns a migrator with the application's migration steps.
func NewMigrator() *Migrator {
	return &Migrator{steps: []MigrationStep{
		{Name: "create_stores", Version: 1, Apply: createStores},
		{Name: "stock_per_account_uniqueness", Version: 27, Apply: stockPerAccountUniqueness},
	}}
}

// Steps returns the migration steps in execution order.
func (m *Migrator) Steps() []MigrationStep {
	steps := make([]MigrationStep, len(m.steps))
	copy(steps, m.steps)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Version < steps[j].Version })
	return steps
}

// SetupDatabase applies every step activated by ev. It runs entirely inside
// tx, the upgrade transaction; structural changes are not allowed elsewhere.
func (m *Migrator) SetupDatabase(tx *gorm.DB, ev UpgradeEvent) error {
	for _, step := range m.Steps() {
		if ev.OldVersion >= step.Version || step.Version > ev.NewVersion {
			continue
		}
		log.Printf("[DB] Applying migration %s (v%d -> v%d)", step.Name, ev.OldVersion, ev.NewVersion)
		if err := step.Apply(tx); err != nil {
			return fmt.Errorf("migration %s: %w", step.Name, err)
		}
	}
	return nil
}

// createStores creates every store with the indexes it had when the
// schema was first released.
func createStores(tx *gorm.DB) error {
	for _, store := range Schema {
		model := store.Model()
		if !tx.Migrator().HasTable(model) {
			if err := tx.Migrator().CreateTable(model); err != nil {
				return fmt.Errorf("create store %s: %w", store.Name, err)
			}
		}
		for _, idx := range initialIndexes(store) {
			if err := ensureIndex(tx, store.Name, idx); err != nil {
				return err
			}
		}
	}
	return nil
}

// initialIndexes returns the first released index set of store. Stock ISIN
// and symbol were globally unique back then and had no compound indexes.
func initialIndexes(store StoreSchema) []IndexSchema {
	if store.Name != entities.StoreStocks {
		return store.Indexes
	}
	return []IndexSchema{
		index("uk1", true, "isin"),
		index("uk2", true, "symbol"),
		index("k1", false, "fadeOut"),
		index("k2", false, "firstPage"),
		index("k3", false, "accountId"),
	}
}

// stockPerAccountUniqueness makes ISIN and symbol unique per account
// instead of globally, without rewriting any data.
func stockPerAccountUniqueness(tx *gorm.DB) error {
	stocks, _ := StoreSchemaFor(entities.StoreStocks)
	for _, name := range []string{"uk1", "uk2"} {
		idx, _ := stocks.Index(name)
		current, found, err := lookupIndex(tx, stocks.Name, idx.PhysicalName(stocks.Name))
		if err != nil {
			return err
		}
		if found && !current.Unique {
			continue
		}
		if found {
			if err := dropIndex(tx, idx.PhysicalName(stocks.Name)); err != nil {
				return err
			}
		}
		if err := createIndex(tx, stocks.Name, idx); err != nil {
			return err
		}
	}
	for _, name := range []string{"uk3", "uk4"} {
		idx, _ := stocks.Index(name)
		if err := ensureIndex(tx, stocks.Name, idx); err != nil {
			return err
		}
	}
	return nil
}

// IndexInfo describes an index as it exists in the engine.
type IndexInfo struct {
	Name    string
	Columns []string
	Unique  bool
}

// Indexes lists the user-declared indexes of store, sorted by name.
func Indexes(db *gorm.DB, store entities.StoreName) ([]IndexInfo, error) {
	var rows []struct {
		Seq    int
		Name   string
		Unique int
		Origin string
	}
	if err := db.Raw(fmt.Sprintf("PRAGMA index_list(%s)", quoteIdent(string(store)))).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list indexes of %s: %w", store, err)
	}

	infos := make([]IndexInfo, 0, len(rows))
	for _, row := range rows {
		if row.Origin != "c" {
			continue
		}
		var cols []struct {
			Seqno int
			Cid   int
			Name  string
		}
		if err := db.Raw(fmt.Sprintf("PRAGMA index_info(%s)", quoteIdent(row.Name))).Scan(&cols).Error; err != nil {
			return nil, fmt.Errorf("describe index %s: %w", row.Name, err)
		}
		sort.Slice(cols, func(i, j int) bool { return cols[i].Seqno < cols[j].Seqno })
		info := IndexInfo{Name: row.Name, Unique: row.Unique != 0}
		for _, c := range cols {
			info.Columns = append(info.Columns, c.Name)
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

func lookupIndex(tx *gorm.DB, store entities.StoreName, name string) (IndexInfo, bool, error) {
	infos, err := Indexes(tx, store)
	if err != nil {
		return IndexInfo{}, false, err
	}
	for _, info := range infos {
		if info.Name == name {
			return info, true, nil
		}
	}
	return IndexInfo{}, false, nil
}

func ensureIndex(tx *gorm.DB, store entities.StoreName, idx IndexSchema) error {
	_, found, err := lookupIndex(tx, store, idx.PhysicalName(store))
	if err != nil || found {
		return err
	}
	return createIndex(tx, store, idx)
}

func createIndex(tx *gorm.DB, store entities.StoreName, idx IndexSchema) error {
	cols := make([]string, len(idx.Columns))
	for i, c := range idx.Columns {
		cols[i] = quoteIdent(c)
	}
	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}
	stmt := fmt.Sprintf("CREATE %sINDEX IF NOT EXISTS %s ON %s (%s)",
		unique, quoteIdent(idx.PhysicalName(store)), quoteIdent(string(store)), strings.Join(cols, ", "))
	if err := tx.Exec(stmt).Error; err != nil {
		return fmt.Errorf("create index %s on %s: %w", idx.Name, store, err)
	}
	return nil
}

func dropIndex(tx *gorm.DB, name string) error {
	if err := tx.Exec("DROP INDEX IF EXISTS " + quoteIdent(name)).Error; err != nil {
		return fmt.Errorf("drop index %s: %w", name, err)
	}
	return nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
