package config

import (
	"time"

	"github.com/spf13/viper"
	"gorm.io/gorm/logger"
)

type (
	Config struct {
		HTTP
		Global
		Audit
		Database
		Health
		Tasks
	}

	HTTP struct {
		Port     int32
		Host     string
		ReadOnly bool // Reject every write request
	}
	Audit struct {
		Dir string // Where import documents are archived, empty = off
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path      string
		Name      string
		Version   int           // Schema version to open, 0 = current
		TxTimeout time.Duration // Default transaction timeout, 0 = none
		// VersionWatch is a cron spec for polling schema changes made by
		// other processes. Empty disables it.
		VersionWatch string
		LogLevel     string // silent, error, warn or info
	}
	Health struct {
		Enabled    bool
		Schedule   string // Cron format: "0 * * * *" = hourly
		AutoRepair bool   // Enqueue a repair task when a check finds issues
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
)

// GormLogLevel maps the configured level name onto gorm's logger.
func (d Database) GormLogLevel() logger.LogLevel {
	switch d.LogLevel {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8189)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("read_only", false)
	v.SetDefault("audit_dir", "")

	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_name", DefaultDatabaseName)
	v.SetDefault("database_version", 0)
	v.SetDefault("database_tx_timeout", "30s")
	v.SetDefault("database_version_watch", "@every 5s")
	v.SetDefault("database_log_level", "warn")

	// Integrity checks
	v.SetDefault("health_check_enabled", true)
	v.SetDefault("health_check_schedule", "0 * * * *") // Hourly at :00
	v.SetDefault("health_auto_repair", false)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	return &Config{
		HTTP: HTTP{
			Port:     v.GetInt32("PORT"),
			Host:     v.GetString("HOST"),
			ReadOnly: v.GetBool("READ_ONLY"),
		},
		Audit: Audit{
			Dir: v.GetString("AUDIT_DIR"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path:         v.GetString("DATABASE_PATH"),
			Name:         v.GetString("DATABASE_NAME"),
			Version:      v.GetInt("DATABASE_VERSION"),
			TxTimeout:    v.GetDuration("DATABASE_TX_TIMEOUT"),
			VersionWatch: v.GetString("DATABASE_VERSION_WATCH"),
			LogLevel:     v.GetString("DATABASE_LOG_LEVEL"),
		},
		Health: Health{
			Enabled:    v.GetBool("HEALTH_CHECK_ENABLED"),
			Schedule:   v.GetString("HEALTH_CHECK_SCHEDULE"),
			AutoRepair: v.GetBool("HEALTH_AUTO_REPAIR"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
	}
}
