package database

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// State is the lifecycle state of a ConnectionManager.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateVersionChanged
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateVersionChanged:
		return "version_changed"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// VersionChangeEvent is delivered when another connection upgraded the
// schema past the version this connection was opened with.
type VersionChangeEvent struct {
	OldVersion int
	NewVersion int
}

// VersionChangeHandler reacts to a VersionChangeEvent.
type VersionChangeHandler func(ev VersionChangeEvent)

// Options configures a ConnectionManager.
type Options struct {
	// Path of the database file.
	Path string
	// Version is the schema version to open. Defaults to SchemaVersion.
	Version int
	// Migrator runs schema upgrades. Defaults to NewMigrator().
	Migrator *Migrator
	// LogLevel of the SQL logger. Defaults to logger.Warn.
	LogLevel logger.LogLevel
	// WatchSchedule is the cron spec of the version-change watcher.
	// Empty disables the watcher.
	WatchSchedule string
	// Reload is called by the default version-change handler after the
	// stale connection was closed.
	Reload func()
}

// ConnectionManager owns the single connection to the database file.
// Only the manager opens and closes it.
type ConnectionManager struct {
	opts Options

	mu      sync.RWMutex
	db      *gorm.DB
	state   State
	version int
	handler VersionChangeHandler
	watcher *cron.Cron
}

// NewConnectionManager creates a disconnected manager.
func NewConnectionManager(opts Options) *ConnectionManager {
	if opts.Version == 0 {
		opts.Version = SchemaVersion
	}
	if opts.Migrator == nil {
		opts.Migrator = NewMigrator()
	}
	if opts.LogLevel == 0 {
		opts.LogLevel = logger.Warn
	}
	return &ConnectionManager{opts: opts, state: StateDisconnected}
}

// Connect opens the database and upgrades its schema when the stored
// version is older than the requested one. Connecting an already connected
// manager is a no-op.
func (m *ConnectionManager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateConnected {
		log.Printf("[DB] WARNING: Connect called on an open connection to %s, ignoring", m.opts.Path)
		return nil
	}
	m.releaseLocked()
	m.state = StateConnecting

	db, err := gorm.Open(sqlite.Open(dsn(m.opts.Path)), &gorm.Config{
		Logger:         logger.Default.LogMode(m.opts.LogLevel),
		TranslateError: true,
	})
	if err != nil {
		m.state = StateDisconnected
		return connectionFailed(err, "open %s", m.opts.Path)
	}

	if err := m.upgrade(ctx, db); err != nil {
		closeDB(db)
		m.state = StateDisconnected
		return err
	}

	m.db = db
	m.version = m.opts.Version
	m.state = StateConnected

	if m.opts.WatchSchedule != "" {
		m.watcher = cron.New()
		if _, err := m.watcher.AddFunc(m.opts.WatchSchedule, m.watchVersion); err != nil {
			log.Printf("[DB] Version watcher disabled, invalid schedule '%s': %v", m.opts.WatchSchedule, err)
			m.watcher = nil
		} else {
			m.watcher.Start()
		}
	}

	log.Printf("[DB] Connected to %s (schema v%d)", m.opts.Path, m.version)
	return nil
}

// upgrade reads the stored version and runs the migrator inside the same
// transaction that records the new version.
func (m *ConnectionManager) upgrade(ctx context.Context, db *gorm.DB) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := readVersion(tx)
		if err != nil {
			return err
		}
		if current > m.opts.Version {
			return fmt.Errorf("requested version %d is older than stored version %d", m.opts.Version, current)
		}
		if current == m.opts.Version {
			return nil
		}

		ev := UpgradeEvent{OldVersion: current, NewVersion: m.opts.Version}
		if err := m.opts.Migrator.SetupDatabase(tx, ev); err != nil {
			return err
		}
		return tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.opts.Version)).Error
	})
	if err != nil {
		return connectionFailed(err, "upgrade %s to v%d", m.opts.Path, m.opts.Version)
	}
	return nil
}

// Database returns the live handle.
func (m *ConnectionManager) Database() (*gorm.DB, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.db == nil || m.state != StateConnected {
		return nil, notConnected()
	}
	return m.db, nil
}

// IsConnected reports whether a live connection is available.
func (m *ConnectionManager) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == StateConnected && m.db != nil
}

// State returns the current lifecycle state.
func (m *ConnectionManager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Version returns the schema version of the open connection, 0 when closed.
func (m *ConnectionManager) Version() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// Path returns the database file path.
func (m *ConnectionManager) Path() string {
	return m.opts.Path
}

// OnVersionChange replaces the version-change handler.
func (m *ConnectionManager) OnVersionChange(handler VersionChangeHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = handler
}

// CheckVersion compares the stored schema version with the connected one
// and dispatches a VersionChangeEvent when it moved ahead. It reports
// whether an event was dispatched.
func (m *ConnectionManager) CheckVersion(ctx context.Context) (bool, error) {
	db, err := m.Database()
	if err != nil {
		return false, err
	}
	stored, err := readVersion(db.WithContext(ctx))
	if err != nil {
		return false, requestFailed(err, "read schema version")
	}

	m.mu.Lock()
	if m.state != StateConnected || stored <= m.version {
		m.mu.Unlock()
		return false, nil
	}
	ev := VersionChangeEvent{OldVersion: m.version, NewVersion: stored}
	m.state = StateVersionChanged
	handler := m.handler
	// The stale connection is unusable from here on, so polling it is pointless.
	if m.watcher != nil {
		m.watcher.Stop()
		m.watcher = nil
	}
	m.mu.Unlock()

	log.Printf("[DB] Schema of %s changed from v%d to v%d by another connection", m.opts.Path, ev.OldVersion, ev.NewVersion)
	if handler == nil {
		handler = m.reload
	}
	handler(ev)
	return true, nil
}

func (m *ConnectionManager) watchVersion() {
	if _, err := m.CheckVersion(context.Background()); err != nil {
		log.Printf("[DB] Version check failed: %v", err)
	}
}

// reload is the default version-change handler. Continuing on a stale
// schema is unsafe, so the connection is closed before the host reloads.
func (m *ConnectionManager) reload(ev VersionChangeEvent) {
	log.Printf("[DB] Reloading after schema upgrade to v%d", ev.NewVersion)
	if err := m.Disconnect(); err != nil {
		log.Printf("[DB] Error closing stale connection: %v", err)
	}
	if m.opts.Reload != nil {
		m.opts.Reload()
	}
}

// Disconnect closes the connection. It is safe to call repeatedly.
func (m *ConnectionManager) Disconnect() error {
	m.mu.Lock()
	watcher := m.watcher
	db := m.db
	m.watcher = nil
	m.db = nil
	m.version = 0
	if db != nil {
		m.state = StateClosed
	}
	m.mu.Unlock()

	if watcher != nil {
		// Not waiting for running jobs: the watcher itself may be the caller.
		watcher.Stop()
	}

	var err error
	if db != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			err = sqlDB.Close()
		}
		log.Printf("[DB] Disconnected from %s", m.opts.Path)
	}

	m.mu.Lock()
	m.state = StateDisconnected
	m.mu.Unlock()
	return err
}

func readVersion(db *gorm.DB) (int, error) {
	var version int
	if err := db.Raw("PRAGMA user_version").Scan(&version).Error; err != nil {
		return 0, err
	}
	return version, nil
}

func dsn(path string) string {
	return path + "?_journal=WAL&_timeout=5000&_busy_timeout=5000&_txlock=immediate"
}

// releaseLocked closes the handle and watcher a version change left behind.
// m.mu must be held.
func (m *ConnectionManager) releaseLocked() {
	if m.watcher != nil {
		m.watcher.Stop()
		m.watcher = nil
	}
	if m.db != nil {
		closeDB(m.db)
		m.db = nil
		m.version = 0
		log.Printf("[DB] Closed stale connection to %s", m.opts.Path)
	}
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
