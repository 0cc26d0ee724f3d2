package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/depot/internal/audit"
	"github.com/mrlokans/depot/internal/batch"
	"github.com/mrlokans/depot/internal/services"
)

// ImportResponse summarises an applied batch.
type ImportResponse struct {
	Stores     []string `json:"stores"`
	Operations int      `json:"operations"`
	AuditFile  string   `json:"audit_file,omitempty"`
}

type ImportController struct {
	importer services.Importer
	queue    TaskQueue
	auditor  *audit.Auditor
}

// NewImportController creates the controller. queue and auditor are optional.
func NewImportController(importer services.Importer, queue TaskQueue, auditor *audit.Auditor) *ImportController {
	return &ImportController{importer: importer, queue: queue, auditor: auditor}
}

// Import handles POST /import
// The body is a JSON list of {"store", "operations"} descriptors applied
// in one transaction. With ?async=true the validated document is handed
// to the task queue.
func (ic *ImportController) Import(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondBadRequest(c, "failed to read request body")
		return
	}

	descriptors, err := batch.DecodeDescriptors(body)
	if err != nil {
		respondStorageError(c, err, "decode batch")
		return
	}
	stores, err := batch.Validate(descriptors)
	if err != nil {
		respondStorageError(c, err, "validate batch")
		return
	}

	resp := ImportResponse{Stores: make([]string, len(stores))}
	for i, s := range stores {
		resp.Stores[i] = s.String()
	}
	for _, d := range descriptors {
		resp.Operations += len(d.Operations)
	}

	if ic.auditor != nil {
		name, err := ic.auditor.SaveImport(body)
		if err != nil {
			respondInternalError(c, err, "archive import")
			return
		}
		resp.AuditFile = name
	}

	if c.Query("async") == "true" && ic.queue != nil {
		id, err := ic.queue.EnqueueImport(body)
		if err != nil {
			respondInternalError(c, err, "enqueue import")
			return
		}
		respondAccepted(c, "import enqueued", gin.H{"task_id": id, "summary": resp})
		return
	}

	if err := ic.importer.AtomicImport(c.Request.Context(), descriptors); err != nil {
		respondStorageError(c, err, "import batch")
		return
	}
	c.JSON(http.StatusCreated, resp)
}
