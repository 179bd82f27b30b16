package health

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// RedisChecker probes the progress store connection.
type RedisChecker struct {
	client *redis.Client
}

func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

func (c *RedisChecker) Name() string     { return "redis" }
func (c *RedisChecker) IsCritical() bool { return false }

func (c *RedisChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{
		Component: c.Name(),
		Status:    StatusHealthy,
		Timestamp: start,
		Critical:  c.IsCritical(),
	}
	if err := c.client.Ping(ctx).Err(); err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
	}
	result.Duration = time.Since(start)
	return result
}

// CacheChecker probes the research cache database.
type CacheChecker struct {
	db *sqlx.DB
}

func NewCacheChecker(db *sqlx.DB) *CacheChecker {
	return &CacheChecker{db: db}
}

func (c *CacheChecker) Name() string     { return "cache" }
func (c *CacheChecker) IsCritical() bool { return false }

func (c *CacheChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{
		Component: c.Name(),
		Status:    StatusHealthy,
		Timestamp: start,
		Critical:  c.IsCritical(),
	}
	if err := c.db.PingContext(ctx); err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
	}
	result.Duration = time.Since(start)
	return result
}

// Prober is the liveness slice of the A2A client.
type Prober interface {
	Health(ctx context.Context) bool
}

// A2AChecker probes the remote researcher's liveness side-channel. It is
// critical only when research is delegated: without the worker every run
// would produce empty bundles.
type A2AChecker struct {
	prober   Prober
	critical bool
}

func NewA2AChecker(prober Prober, critical bool) *A2AChecker {
	return &A2AChecker{prober: prober, critical: critical}
}

func (c *A2AChecker) Name() string     { return "a2a_researcher" }
func (c *A2AChecker) IsCritical() bool { return c.critical }

func (c *A2AChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{
		Component: c.Name(),
		Status:    StatusHealthy,
		Timestamp: start,
		Critical:  c.IsCritical(),
	}
	if !c.prober.Health(ctx) {
		result.Status = StatusUnhealthy
		result.Error = "researcher not healthy"
	}
	result.Duration = time.Since(start)
	return result
}
