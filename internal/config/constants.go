package config

// Default paths for databases
const (
	// DefaultDatabasePath is the default path for the depot database
	DefaultDatabasePath = "./depot.db"
)

// DefaultDatabaseName is the logical name of the depot store.
const DefaultDatabaseName = "depot"
