package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/depot/internal/audit"
	"github.com/mrlokans/depot/internal/config"
	"github.com/mrlokans/depot/internal/database"
	http_controllers "github.com/mrlokans/depot/internal/http"
	"github.com/mrlokans/depot/internal/scheduler"
	"github.com/mrlokans/depot/internal/services"
	"github.com/mrlokans/depot/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT or SIGTERM, or until reload is
// closed, then shuts it down within the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, reload <-chan struct{}, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-reload:
		log.Printf("Schema changed underneath the server, shutting down for restart")
	}
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop accepting requests before background workers go away.
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

// NewStorage builds the storage service described by cfg. reload is called
// when another process upgrades the schema; the connection is already
// closed at that point.
func NewStorage(cfg *config.Config, reload func()) *services.StorageService {
	conn := database.NewConnectionManager(database.Options{
		Path:          cfg.Database.Path,
		Version:       cfg.Database.Version,
		LogLevel:      cfg.Database.GormLogLevel(),
		WatchSchedule: cfg.Database.VersionWatch,
		Reload:        reload,
	})
	return services.NewStorageService(conn, cfg.Database.TxTimeout)
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Depot v%s (store %q)", version, cfg.Database.Name)

	reload := make(chan struct{})
	var reloadOnce sync.Once
	storage := NewStorage(cfg, func() { reloadOnce.Do(func() { close(reload) }) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := storage.Connect(ctx); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := storage.Disconnect(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	var taskClient *tasks.Client
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			MaxRetries:        cfg.Tasks.MaxRetries,
			RetryDelay:        cfg.Tasks.RetryDelay,
			TaskTimeout:       cfg.Tasks.TaskTimeout,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}

		var err error
		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewRepairDatabaseQueue(storage, taskCfg),
			tasks.NewImportBatchQueue(storage, taskCfg),
		)
		go taskClient.Start(ctx)
	}

	var healthScheduler *scheduler.HealthScheduler
	if cfg.Health.Enabled {
		var repairs scheduler.RepairEnqueuer
		if cfg.Health.AutoRepair && taskClient != nil {
			repairs = taskClient
		}
		healthScheduler = scheduler.NewHealthScheduler(storage, repairs, cfg.Health.Schedule)
		if err := healthScheduler.Start(ctx); err != nil {
			log.Printf("WARNING: health scheduler not started: %v", err)
			healthScheduler = nil
		}
	}

	routerCfg := http_controllers.RouterConfig{
		Storage:  storage,
		ReadOnly: cfg.HTTP.ReadOnly,
		Version:  version,
	}
	if cfg.Audit.Dir != "" {
		routerCfg.Auditor = audit.NewAuditor(cfg.Audit.Dir)
	}
	if cfg.HTTP.ReadOnly {
		log.Printf("Read-only mode enabled - write requests will be rejected")
	}
	if taskClient != nil {
		routerCfg.TaskQueue = taskClient
	}
	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if healthScheduler != nil {
			healthScheduler.Stop()
		}
		if taskClient != nil {
			taskClient.Stop(ctx)
		}
		cancel()
	}

	Serve(router, cfg, reload, onShutdown)
}
