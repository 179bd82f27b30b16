package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubChecker reports a fixed status.
type stubChecker struct {
	name     string
	status   Status
	critical bool
}

func (s stubChecker) Name() string     { return s.name }
func (s stubChecker) IsCritical() bool { return s.critical }
func (s stubChecker) Check(context.Context) CheckResult {
	r := CheckResult{
		Component: s.name,
		Status:    s.status,
		Critical:  s.critical,
		Timestamp: time.Now(),
	}
	if s.status != StatusHealthy {
		r.Error = "probe failed"
	}
	return r
}

func managerWith(t *testing.T, checkers ...Checker) *Manager {
	t.Helper()
	m := NewManager(zap.NewNop())
	for _, c := range checkers {
		m.RegisterChecker(c)
	}
	m.runChecks(context.Background())
	return m
}

func TestOverallAllHealthy(t *testing.T) {
	m := managerWith(t,
		stubChecker{name: "cache", status: StatusHealthy},
		stubChecker{name: "redis", status: StatusHealthy},
	)

	status, components := m.Overall()
	assert.Equal(t, StatusHealthy, status)
	assert.Len(t, components, 2)
	assert.True(t, m.Ready())
}

func TestOverallNonCriticalFailureDegrades(t *testing.T) {
	m := managerWith(t,
		stubChecker{name: "cache", status: StatusHealthy},
		stubChecker{name: "redis", status: StatusUnhealthy, critical: false},
	)

	status, _ := m.Overall()
	assert.Equal(t, StatusDegraded, status)
	assert.True(t, m.Ready(), "degraded service still serves traffic")
}

func TestOverallCriticalFailureIsUnhealthy(t *testing.T) {
	m := managerWith(t,
		stubChecker{name: "a2a_researcher", status: StatusUnhealthy, critical: true},
		stubChecker{name: "redis", status: StatusUnhealthy, critical: false},
	)

	status, _ := m.Overall()
	assert.Equal(t, StatusUnhealthy, status)
	assert.False(t, m.Ready())
	assert.True(t, m.Live(), "liveness is independent of dependency health")
}

func TestRedisChecker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	result := NewRedisChecker(client).Check(context.Background())
	assert.Equal(t, StatusHealthy, result.Status)
	assert.False(t, result.Critical)

	mr.Close()
	result = NewRedisChecker(client).Check(context.Background())
	assert.Equal(t, StatusUnhealthy, result.Status)
	assert.NotEmpty(t, result.Error)
}

type stubProber struct{ healthy bool }

func (p stubProber) Health(context.Context) bool { return p.healthy }

func TestA2AChecker(t *testing.T) {
	up := NewA2AChecker(stubProber{healthy: true}, true).Check(context.Background())
	assert.Equal(t, StatusHealthy, up.Status)
	assert.True(t, up.Critical)

	down := NewA2AChecker(stubProber{healthy: false}, false).Check(context.Background())
	assert.Equal(t, StatusUnhealthy, down.Status)
	assert.False(t, down.Critical)
}

func TestHTTPHandlerRoutes(t *testing.T) {
	m := managerWith(t,
		stubChecker{name: "cache", status: StatusHealthy},
	)
	mux := http.NewServeMux()
	NewHTTPHandler(m, zap.NewNop()).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	t.Run("health", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Status     Status                 `json:"status"`
			Components map[string]CheckResult `json:"components"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, StatusHealthy, body.Status)
		assert.Contains(t, body.Components, "cache")
	})

	t.Run("liveness", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/health/live")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("readiness", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/health/ready")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("method not allowed", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/health", "application/json", nil)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestHTTPHandlerUnhealthyStatusCode(t *testing.T) {
	m := managerWith(t,
		stubChecker{name: "a2a_researcher", status: StatusUnhealthy, critical: true},
	)
	mux := http.NewServeMux()
	NewHTTPHandler(m, zap.NewNop()).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	ready, err := http.Get(srv.URL + "/health/ready")
	require.NoError(t, err)
	defer ready.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, ready.StatusCode)
}
