package unit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apihttp "github.com/heatgrid-dss/sizing-backend/internal/api/http"
)

func TestHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("reports cache up and db disabled", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer cache.Close()

		r := gin.New()
		apihttp.NewHealthHandler("sizing-backend", "test", nil, cache).RegisterRoutes(r)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp apihttp.HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "sizing-backend", resp.Service)
		assert.Equal(t, "up", resp.Cache)
		assert.Equal(t, "disabled", resp.DB)
	})

	t.Run("reports cache down when redis is gone", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer cache.Close()
		mr.Close()

		r := gin.New()
		apihttp.NewHealthHandler("sizing-backend", "test", nil, cache).RegisterRoutes(r)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp apihttp.HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "down", resp.Cache)
	})
}
