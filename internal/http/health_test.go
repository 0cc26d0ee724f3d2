package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/depot/internal/entities"
	"github.com/mrlokans/depot/internal/health"
)

func TestHealthController_Status(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		router := NewRouter(RouterConfig{Storage: setupTestStorage(t), Version: "1.2.3"})

		w := perform(router, "GET", "/health", "")
		assert.Equal(t, http.StatusOK, w.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "1.2.3", resp.Version)
		assert.Equal(t, "ok", resp.Checks["database"])
		assert.Equal(t, "ok", resp.Checks["integrity"])
		require.NotNil(t, resp.Result)
		assert.True(t, resp.Result.Healthy)
	})

	t.Run("degraded with orphans", func(t *testing.T) {
		storage := setupTestStorage(t)
		_, err := storage.Stocks().Save(context.Background(), entities.Stock{ISIN: "US1234567890", AccountID: 3}, nil)
		require.NoError(t, err)
		router := NewRouter(RouterConfig{Storage: storage})

		w := perform(router, "GET", "/health", "")
		assert.Equal(t, http.StatusOK, w.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "degraded", resp.Status)
		require.Len(t, resp.Result.Issues, 1)
		assert.Equal(t, entities.StoreStocks, resp.Result.Issues[0].Store)
	})

	t.Run("unhealthy when disconnected", func(t *testing.T) {
		storage := setupTestStorage(t)
		require.NoError(t, storage.Disconnect())
		router := NewRouter(RouterConfig{Storage: storage})

		w := perform(router, "GET", "/health", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"unhealthy"`)
	})

	t.Run("without storage", func(t *testing.T) {
		router := NewRouter(RouterConfig{})

		w := perform(router, "GET", "/health", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "not configured")

		assert.Equal(t, http.StatusNotFound, perform(router, "GET", "/accounts/1/records", "").Code)
	})
}

func TestHealthController_Repair(t *testing.T) {
	t.Run("inline", func(t *testing.T) {
		storage := setupTestStorage(t)
		_, err := storage.Bookings().Save(context.Background(), entities.Booking{AccountID: 9}, nil)
		require.NoError(t, err)
		router := NewRouter(RouterConfig{Storage: storage})

		w := perform(router, "POST", "/health/repair", "")
		assert.Equal(t, http.StatusOK, w.Code)

		var result health.RepairResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.Equal(t, 1, result.Fixed)
		assert.True(t, result.Healthy)
	})

	t.Run("async", func(t *testing.T) {
		queue := &fakeQueue{}
		router := NewRouter(RouterConfig{Storage: setupTestStorage(t), TaskQueue: queue})

		w := perform(router, "POST", "/health/repair?async=true", "")
		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Contains(t, w.Body.String(), "repair-1")
		assert.Equal(t, []string{"api request"}, queue.repairs)
	})

	t.Run("async without queue runs inline", func(t *testing.T) {
		router := NewRouter(RouterConfig{Storage: setupTestStorage(t)})

		w := perform(router, "POST", "/health/repair?async=true", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("without storage", func(t *testing.T) {
		w := perform(NewRouter(RouterConfig{}), "POST", "/health/repair", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
