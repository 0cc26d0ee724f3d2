package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ReadOnlyMiddleware blocks every request that could change the store.
// GET, HEAD and OPTIONS always pass.
type ReadOnlyMiddleware struct {
	enabled bool
}

func NewReadOnlyMiddleware(enabled bool) *ReadOnlyMiddleware {
	return &ReadOnlyMiddleware{enabled: enabled}
}

// IsEnabled returns whether read-only mode is active.
func (m *ReadOnlyMiddleware) IsEnabled() bool {
	return m.enabled
}

// Handler returns a Gin middleware that blocks write operations.
func (m *ReadOnlyMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.enabled {
			c.Next()
			return
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
			Error: "the store is in read-only mode",
			Code:  "READ_ONLY",
		})
	}
}
