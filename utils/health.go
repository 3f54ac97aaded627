package utils

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HealthCheck probes one external dependency.
type HealthCheck func(ctx context.Context) error

// HealthStatus represents current status of external services.
type HealthStatus struct {
	Healthy   bool            `json:"healthy"`
	Checks    map[string]bool `json:"checks"`
	CheckedAt time.Time       `json:"checkedAt"`
}

// HealthMonitor runs named checks periodically and keeps the latest snapshot.
type HealthMonitor struct {
	checks  map[string]HealthCheck
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.RWMutex
	current HealthStatus
}

func NewHealthMonitor(checks map[string]HealthCheck, logger *zap.Logger) *HealthMonitor {
	return &HealthMonitor{checks: checks, timeout: 3 * time.Second, logger: logger}
}

// Status returns latest stored health snapshot.
func (m *HealthMonitor) Status() HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// CheckNow runs every check once and stores the result.
func (m *HealthMonitor) CheckNow(ctx context.Context) HealthStatus {
	status := HealthStatus{Healthy: true, Checks: make(map[string]bool, len(m.checks))}
	for name, check := range m.checks {
		cctx, cancel := context.WithTimeout(ctx, m.timeout)
		err := check(cctx)
		cancel()
		if err != nil {
			m.logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
			status.Healthy = false
		}
		status.Checks[name] = err == nil
	}
	status.CheckedAt = time.Now()

	m.mu.Lock()
	m.current = status
	m.mu.Unlock()
	return status
}

// Start performs periodic health checks until ctx ends.
func (m *HealthMonitor) Start(ctx context.Context, interval time.Duration) {
	m.CheckNow(ctx)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.CheckNow(ctx)
			}
		}
	}()
}
