package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/depot/internal/audit"
	"github.com/mrlokans/depot/internal/services"
)

// maxImportBody bounds the size of an import document.
const maxImportBody = 32 << 20

// RouterConfig contains all dependencies needed to create the HTTP router.
type RouterConfig struct {
	Storage *services.StorageService

	// TaskQueue is optional; without it async requests run inline.
	TaskQueue TaskQueue

	// Auditor archives import documents when set.
	Auditor *audit.Auditor

	ReadOnly bool
	Version  string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(SecurityHeadersMiddleware())
	router.Use(NewReadOnlyMiddleware(cfg.ReadOnly).Handler())

	var store HealthStore
	if cfg.Storage != nil {
		store = cfg.Storage
	}
	healthController := NewHealthController(store, cfg.TaskQueue, cfg.Version)
	router.GET("/health", healthController.Status)
	router.POST("/health/repair", healthController.Repair)

	if cfg.Storage == nil {
		return router
	}

	accountsController := NewAccountsController(cfg.Storage)
	router.GET("/accounts/:id/records", accountsController.Records)
	router.DELETE("/accounts/:id", accountsController.Delete)

	importController := NewImportController(cfg.Storage, cfg.TaskQueue, cfg.Auditor)
	router.POST("/import", maxBodyMiddleware(maxImportBody), importController.Import)

	if cfg.TaskQueue != nil {
		tasksController := NewTasksController(cfg.TaskQueue)
		router.GET("/tasks/:id", tasksController.GetTaskStatus)
	}

	return router
}
