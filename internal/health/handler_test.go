package health_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/linkkeeper/internal/health"
	"github.com/serroba/linkkeeper/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockChecker struct {
	err error
}

func (m *mockChecker) Ping(_ context.Context) error {
	return m.err
}

func TestHandler_Check(t *testing.T) {
	t.Run("ok when every dependency answers", func(t *testing.T) {
		handler := health.NewHandler(
			health.Dependency{Name: "postgres", Checker: store.NewMemoryStore()},
			health.Dependency{Name: "redis", Checker: &mockChecker{}},
		)

		resp, err := handler.Check(context.Background(), nil)

		require.NoError(t, err)
		assert.Equal(t, "ok", resp.Body.Status)
		assert.Equal(t, map[string]string{"postgres": "healthy", "redis": "healthy"}, resp.Body.Dependencies)
	})

	t.Run("degraded when one dependency fails", func(t *testing.T) {
		handler := health.NewHandler(
			health.Dependency{Name: "postgres", Checker: &mockChecker{}},
			health.Dependency{Name: "redis", Checker: &mockChecker{err: errors.New("connection refused")}},
		)

		resp, err := handler.Check(context.Background(), nil)

		require.NoError(t, err)
		assert.Equal(t, "degraded", resp.Body.Status)
		assert.Equal(t, "healthy", resp.Body.Dependencies["postgres"])
		assert.Equal(t, "unhealthy", resp.Body.Dependencies["redis"])
	})
}

func TestRedisChecker_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	assert.Error(t, health.NewRedisChecker(client).Ping(context.Background()))
}

func TestRegisterRoutes(t *testing.T) {
	_, api := humatest.New(t)
	health.RegisterRoutes(api, health.NewHandler(health.Dependency{Name: "redis", Checker: &mockChecker{}}))

	resp := api.Get("/health")

	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"status":"ok","dependencies":{"redis":"healthy"}}`, resp.Body.String())
}
