// Package health exposes liveness and readiness of the worker's
// dependencies: the progress store, the research cache, and the optional
// A2A researcher.
package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Status of one component or the whole service.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult is one component's health observation.
type CheckResult struct {
	Component string        `json:"component"`
	Status    Status        `json:"status"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
	Critical  bool          `json:"critical"`
}

// Checker probes one dependency.
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
	IsCritical() bool
}

// Manager runs registered checkers and aggregates their results.
type Manager struct {
	mu       sync.RWMutex
	checkers map[string]Checker
	results  map[string]CheckResult
	interval time.Duration
	logger   *zap.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewManager creates a health manager with a 30s background check cycle.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		checkers: make(map[string]Checker),
		results:  make(map[string]CheckResult),
		interval: 30 * time.Second,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// RegisterChecker installs a checker under its name.
func (m *Manager) RegisterChecker(c Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers[c.Name()] = c
}

// Start begins background checking until Stop or context cancellation.
func (m *Manager) Start(ctx context.Context) {
	m.runChecks(ctx)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.runChecks(ctx)
		}
	}
}

// Stop halts background checking.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Manager) runChecks(ctx context.Context) {
	m.mu.RLock()
	checkers := make([]Checker, 0, len(m.checkers))
	for _, c := range m.checkers {
		checkers = append(checkers, c)
	}
	m.mu.RUnlock()

	for _, c := range checkers {
		cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		result := c.Check(cctx)
		cancel()
		if result.Status != StatusHealthy {
			m.logger.Warn("Health check failed",
				zap.String("component", c.Name()),
				zap.String("status", string(result.Status)),
				zap.String("error", result.Error),
			)
		}
		m.mu.Lock()
		m.results[c.Name()] = result
		m.mu.Unlock()
	}
}

// Overall aggregates the latest results: any critical failure makes the
// service unhealthy, any non-critical failure degrades it.
func (m *Manager) Overall() (Status, map[string]CheckResult) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	overall := StatusHealthy
	components := make(map[string]CheckResult, len(m.results))
	for name, r := range m.results {
		components[name] = r
		if r.Status == StatusHealthy {
			continue
		}
		if r.Critical {
			overall = StatusUnhealthy
		} else if overall == StatusHealthy {
			overall = StatusDegraded
		}
	}
	return overall, components
}

// Live reports process liveness; it is true as long as the manager runs.
func (m *Manager) Live() bool {
	return true
}

// Ready reports whether every critical dependency is healthy.
func (m *Manager) Ready() bool {
	status, _ := m.Overall()
	return status != StatusUnhealthy
}
