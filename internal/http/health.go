package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/depot/internal/health"
)

// HealthStore is the part of the storage service the health endpoints use.
type HealthStore interface {
	IsConnected() bool
	HealthCheck(ctx context.Context) (*health.Result, error)
	RepairDatabase(ctx context.Context) (*health.RepairResult, error)
}

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
	Result  *health.Result    `json:"result,omitempty"`
}

type HealthController struct {
	store   HealthStore
	queue   TaskQueue
	version string
}

// NewHealthController creates the controller. queue may be nil, in which
// case repairs always run inline.
func NewHealthController(store HealthStore, queue TaskQueue, version string) *HealthController {
	return &HealthController{
		store:   store,
		queue:   queue,
		version: version,
	}
}

// Status handles GET /health
// Reports "unhealthy" with 503 when the database is unreachable and
// "degraded" with 200 when the integrity check found issues.
func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"
	var result *health.Result

	if h.store == nil {
		checks["database"] = "not configured"
	} else if !h.store.IsConnected() {
		checks["database"] = "error: not connected"
		status = "unhealthy"
	} else {
		checks["database"] = "ok"

		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()

		var err error
		result, err = h.store.HealthCheck(ctx)
		switch {
		case err != nil:
			checks["integrity"] = "error: " + err.Error()
			status = "unhealthy"
		case result.Healthy:
			checks["integrity"] = "ok"
		default:
			checks["integrity"] = "issues found"
			status = "degraded"
		}
	}

	resp := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
		Result:  result,
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}
	c.IndentedJSON(statusCode, resp)
}

// Repair handles POST /health/repair
// With ?async=true and a task queue the repair is enqueued instead.
func (h *HealthController) Repair(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "database not configured"})
		return
	}

	if c.Query("async") == "true" && h.queue != nil {
		id, err := h.queue.EnqueueRepair("api request")
		if err != nil {
			respondInternalError(c, err, "enqueue repair")
			return
		}
		respondAccepted(c, "repair enqueued", gin.H{"task_id": id})
		return
	}

	result, err := h.store.RepairDatabase(c.Request.Context())
	if err != nil {
		respondStorageError(c, err, "repair database")
		return
	}
	c.JSON(http.StatusOK, result)
}
