package utils

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestHealthMonitor_CheckNow(t *testing.T) {
	m := NewHealthMonitor(map[string]HealthCheck{
		"store": func(context.Context) error { return nil },
		"redis": func(context.Context) error { return errors.New("connection refused") },
	}, zap.NewNop())

	status := m.CheckNow(context.Background())

	assert.False(t, status.Healthy)
	assert.Equal(t, map[string]bool{"store": true, "redis": false}, status.Checks)
	assert.False(t, status.CheckedAt.IsZero())
	assert.Equal(t, status, m.Status())
}

func TestHealthMonitor_AllHealthy(t *testing.T) {
	m := NewHealthMonitor(map[string]HealthCheck{
		"store": func(context.Context) error { return nil },
	}, zap.NewNop())

	assert.True(t, m.CheckNow(context.Background()).Healthy)
}
