package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mrlokans/depot/internal/database"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // additional context (validation errors, etc.)
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// respondStorageError maps a storage error onto a status code. Caller bugs
// become 400 with the database error code, conflicts 409, a missing
// connection 503; anything else is an internal error.
func respondStorageError(c *gin.Context, err error, context string) {
	var dbErr *database.Error
	code := ""
	if errors.As(err, &dbErr) {
		code = string(dbErr.Code)
	}

	switch {
	case errors.Is(err, database.ErrInvalidBatch),
		errors.Is(err, database.ErrUnknownOperationType),
		errors.Is(err, database.ErrNoIndex):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: code})
	case errors.Is(err, gorm.ErrDuplicatedKey):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "record conflicts with an existing one", Code: code})
	case errors.Is(err, database.ErrNotConnected):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "database not connected", Code: code})
	default:
		log.Printf("Internal error (%s): %v", context, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: code})
	}
}

// respondAccepted sends a 202 Accepted response (for async operations).
func respondAccepted(c *gin.Context, message string, data any) {
	c.JSON(http.StatusAccepted, SuccessResponse{Message: message, Data: data})
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	idStr := c.Param(paramName)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}
