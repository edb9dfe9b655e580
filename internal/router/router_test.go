package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rifapos/internal/config"
	"rifapos/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// offlineEngine builds the full router without touching Postgres or Redis;
// only requests rejected before reaching a repository are safe to send.
func offlineEngine(t *testing.T) *gin.Engine {
	t.Helper()
	cfg := &config.Config{
		Env:             "test",
		JWTSecret:       "secret",
		ProductCacheTTL: time.Minute,
		ReceiptTokenTTL: time.Hour,
		ReceiptLocale:   "es",
		DBLockTimeout:   time.Second,
	}
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = rdb.Close() })

	svcs := NewServices(cfg, nil, rdb, nil)
	return New(cfg, nil, rdb, svcs, middleware.NewIPRateLimiter(100))
}

func TestRoutesRegistered(t *testing.T) {
	r := offlineEngine(t)
	have := map[string]bool{}
	for _, rt := range r.Routes() {
		have[rt.Method+" "+rt.Path] = true
	}
	for _, want := range []string{
		"GET /health",
		"GET /metrics",
		"GET /sales/receipt-data/:token",
		"GET /sales/receipt-data/:token/pdf",
		"POST /sales",
		"GET /sales/:id",
		"POST /sales/:id/receipt-token",
		"GET /receipts/most-viewed",
		"GET /products",
		"POST /products",
		"DELETE /products/:id",
		"PUT /products/:id/variants/:variantId/stock",
		"GET /products/:id/stock-movements",
		"POST /clients",
		"DELETE /clients/:id",
		"POST /raffles",
		"GET /raffles/:id",
		"GET /raffles/:id/tickets",
		"POST /raffles/:id/draw",
		"POST /raffles/:id/generate-batch",
		"GET /swagger/*any",
	} {
		assert.True(t, have[want], "missing route %s", want)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := offlineEngine(t)
	for _, path := range []string{"/sales/" + uuid.NewString(), "/products", "/raffles/" + uuid.NewString()} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestPublicReceiptRouteIsNotAuthenticated(t *testing.T) {
	r := offlineEngine(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sales/receipt-data/not-a-token", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}
