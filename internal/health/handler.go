// Package health reports the reachability of the service's backing stores.
package health

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/redis/go-redis/v9"
)

// Checker is anything that can be pinged.
type Checker interface {
	Ping(ctx context.Context) error
}

// RedisChecker adapts a redis client to Checker.
type RedisChecker struct {
	client redis.UniversalClient
}

// NewRedisChecker creates a Redis health checker.
func NewRedisChecker(client redis.UniversalClient) *RedisChecker {
	return &RedisChecker{client: client}
}

// Ping checks Redis connectivity.
func (r *RedisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Dependency is a named Checker.
type Dependency struct {
	Name    string
	Checker Checker
}

// Handler probes every dependency on each request.
type Handler struct {
	dependencies []Dependency
	timeout      time.Duration
}

// NewHandler creates a health handler probing deps in order.
func NewHandler(deps ...Dependency) *Handler {
	return &Handler{dependencies: deps, timeout: 2 * time.Second}
}

// Response is the body of GET /health.
type Response struct {
	Body struct {
		Status       string            `doc:"ok or degraded" json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
}

// Check pings each dependency. A failing dependency degrades the status but
// never fails the request.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	resp := &Response{}
	resp.Body.Status = "ok"
	resp.Body.Dependencies = make(map[string]string, len(h.dependencies))

	for _, dep := range h.dependencies {
		probeCtx, cancel := context.WithTimeout(ctx, h.timeout)
		err := dep.Checker.Ping(probeCtx)

		cancel()

		if err != nil {
			resp.Body.Dependencies[dep.Name] = "unhealthy"
			resp.Body.Status = "degraded"

			continue
		}

		resp.Body.Dependencies[dep.Name] = "healthy"
	}

	return resp, nil
}

// RegisterRoutes registers health check routes.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      "GET",
		Path:        "/health",
		Summary:     "Service health",
		Tags:        []string{"Operations"},
	}, h.Check)
}
