package database

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/depot/internal/entities"
)

func indexSnapshot(t *testing.T, db *gorm.DB) map[entities.StoreName][]IndexInfo {
	t.Helper()
	snap := make(map[entities.StoreName][]IndexInfo)
	for _, store := range entities.Stores {
		idx, err := Indexes(db, store)
		require.NoError(t, err)
		snap[store] = idx
	}
	return snap
}

func findIndex(indexes []IndexInfo, name string) (IndexInfo, bool) {
	for _, idx := range indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return IndexInfo{}, false
}

func TestMigrator_CreatesDeclaredSchema(t *testing.T) {
	conn, _ := setupTestDB(t)
	db, err := conn.Database()
	require.NoError(t, err)

	snap := indexSnapshot(t, db)

	for _, store := range Schema {
		for _, want := range store.Indexes {
			got, ok := findIndex(snap[store.Name], want.PhysicalName(store.Name))
			require.True(t, ok, "index %s missing", want.PhysicalName(store.Name))
			assert.Equal(t, want.Columns, got.Columns, want.PhysicalName(store.Name))
			assert.Equal(t, want.Unique, got.Unique, want.PhysicalName(store.Name))
		}
		assert.Len(t, snap[store.Name], len(store.Indexes), store.Name)
	}

	iban, _ := findIndex(snap[entities.StoreAccounts], "accounts_uk1")
	assert.True(t, iban.Unique)
	isin, _ := findIndex(snap[entities.StoreStocks], "stocks_uk1")
	assert.False(t, isin.Unique, "isin is only unique per account")
}

func TestMigrator_SetupDatabaseIsIdempotent(t *testing.T) {
	opts := testOptions(t)
	db, err := gorm.Open(sqlite.Open(dsn(opts.Path)), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	t.Cleanup(func() { closeDB(db) })

	m := NewMigrator()
	ev := UpgradeEvent{OldVersion: 0, NewVersion: SchemaVersion}

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error { return m.SetupDatabase(tx, ev) }))
	once := indexSnapshot(t, db)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error { return m.SetupDatabase(tx, ev) }))
	twice := indexSnapshot(t, db)

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("index set changed on second run (-once +twice):\n%s", diff)
	}
}

func TestMigrator_StepsAreOrdered(t *testing.T) {
	m := &Migrator{steps: []MigrationStep{
		{Name: "late", Version: 9},
		{Name: "early", Version: 2},
		{Name: "middle", Version: 5},
	}}

	var names []string
	for _, s := range m.Steps() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"early", "middle", "late"}, names)
}

func TestMigrator_OnlyRunsActivatedSteps(t *testing.T) {
	var ran []string
	step := func(name string) func(*gorm.DB) error {
		return func(*gorm.DB) error {
			ran = append(ran, name)
			return nil
		}
	}
	m := &Migrator{steps: []MigrationStep{
		{Name: "v1", Version: 1, Apply: step("v1")},
		{Name: "v3", Version: 3, Apply: step("v3")},
		{Name: "v5", Version: 5, Apply: step("v5")},
	}}

	require.NoError(t, m.SetupDatabase(nil, UpgradeEvent{OldVersion: 1, NewVersion: 3}))
	assert.Equal(t, []string{"v3"}, ran)
}

func TestMigrator_UpgradeRelaxesStockUniqueness(t *testing.T) {
	ctx := context.Background()
	opts := testOptions(t)

	// Version 1: ISIN is globally unique.
	v1 := opts
	v1.Version = 1
	conn := NewConnectionManager(v1)
	require.NoError(t, conn.Connect(ctx))
	stocks := NewBaseRepository[entities.Stock](NewTransactionManager(conn, 0))

	_, err := stocks.Save(ctx, entities.Stock{ISIN: "US1234567890", Symbol: "ABC", AccountID: 1}, nil)
	require.NoError(t, err)
	_, err = stocks.Save(ctx, entities.Stock{ISIN: "US1234567890", Symbol: "XYZ", AccountID: 2}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestFailed)
	require.NoError(t, conn.Disconnect())

	// Current version: unique per account only.
	conn = NewConnectionManager(opts)
	require.NoError(t, conn.Connect(ctx))
	t.Cleanup(func() { conn.Disconnect() })
	assert.Equal(t, SchemaVersion, conn.Version())
	stocks = NewBaseRepository[entities.Stock](NewTransactionManager(conn, 0))

	_, err = stocks.Save(ctx, entities.Stock{ISIN: "US1234567890", Symbol: "XYZ", AccountID: 2}, nil)
	require.NoError(t, err)
	_, err = stocks.Save(ctx, entities.Stock{ISIN: "US1234567890", Symbol: "DEF", AccountID: 2}, nil)
	assert.ErrorIs(t, err, ErrRequestFailed, "isin stays unique within an account")

	n, err := stocks.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
