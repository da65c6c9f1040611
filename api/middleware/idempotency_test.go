package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealerdesk/dealerdesk-backend/pkg/logger"
	pkgredis "github.com/dealerdesk/dealerdesk-backend/pkg/redis"
)

func newIdempotencyTestServer(t *testing.T, store pkgredis.IdempotencyStore) (http.Handler, *int) {
	t.Helper()

	calls := 0
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	guard := Idempotency(store, time.Minute, logg)

	r := chi.NewRouter()
	r.With(guard).Post("/vehicle", func(w http.ResponseWriter, req *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":1}}`))
	})
	r.With(guard).Get("/vehicle", func(w http.ResponseWriter, req *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})

	return r, &calls
}

func newMiniredisStore(t *testing.T) pkgredis.IdempotencyStore {
	t.Helper()

	mr := miniredis.RunT(t)
	raw := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	return pkgredis.NewFromClient(raw)
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	handler, calls := newIdempotencyTestServer(t, newMiniredisStore(t))

	body := `{"make":"BMW","model":"X5"}`

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/vehicle", strings.NewReader(body))
	req.Header.Set("Idempotency-Key", "abc-123")
	handler.ServeHTTP(first, req)

	require.Equal(t, http.StatusCreated, first.Code)
	require.Equal(t, 1, *calls)

	second := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/vehicle", strings.NewReader(body))
	req.Header.Set("Idempotency-Key", "abc-123")
	handler.ServeHTTP(second, req)

	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "application/json", second.Header().Get("Content-Type"))
	assert.Equal(t, 1, *calls, "replay must not reach the handler")
}

func TestIdempotencyRejectsReusedKeyWithDifferentBody(t *testing.T) {
	handler, calls := newIdempotencyTestServer(t, newMiniredisStore(t))

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/vehicle", strings.NewReader(`{"make":"BMW","model":"X5"}`))
	req.Header.Set("Idempotency-Key", "abc-123")
	handler.ServeHTTP(first, req)
	require.Equal(t, http.StatusCreated, first.Code)

	second := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/vehicle", strings.NewReader(`{"make":"Audi","model":"A4"}`))
	req.Header.Set("Idempotency-Key", "abc-123")
	handler.ServeHTTP(second, req)

	assert.Equal(t, http.StatusConflict, second.Code)
	assert.Contains(t, second.Body.String(), "idempotency key reused")
	assert.Equal(t, 1, *calls)
}

func TestIdempotencyWithoutKeyPassesThrough(t *testing.T) {
	handler, calls := newIdempotencyTestServer(t, newMiniredisStore(t))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/vehicle", strings.NewReader(`{"make":"BMW","model":"X5"}`))
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	assert.Equal(t, 2, *calls, "unkeyed requests are never deduplicated")
}

func TestIdempotencyNilStoreDisablesGuard(t *testing.T) {
	handler, calls := newIdempotencyTestServer(t, nil)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/vehicle", strings.NewReader(`{"make":"BMW","model":"X5"}`))
		req.Header.Set("Idempotency-Key", "abc-123")
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	assert.Equal(t, 2, *calls)
}

func TestIdempotencyIgnoresUnguardedRoutes(t *testing.T) {
	handler, calls := newIdempotencyTestServer(t, newMiniredisStore(t))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/vehicle", nil)
		req.Header.Set("Idempotency-Key", "abc-123")
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Equal(t, 2, *calls)
}

func TestGuardedRoute(t *testing.T) {
	assert.True(t, guardedRoute(http.MethodPost, "/vehicle"))
	assert.True(t, guardedRoute(http.MethodPatch, "/vehicle/{vehicleId}"))
	assert.False(t, guardedRoute(http.MethodGet, "/vehicle"))
	assert.False(t, guardedRoute(http.MethodPost, "/vehicle/{vehicleId}"))
	assert.False(t, guardedRoute(http.MethodPost, ""))
}
