package handlers

import (
	"context"
	"net/http"

	"bridge/utils"

	"github.com/gin-gonic/gin"
)

type HealthReporter interface {
	Status() utils.HealthStatus
	CheckNow(ctx context.Context) utils.HealthStatus
}

// HealthHandler reports the latest dependency snapshot, checking on demand before the first run.
func HealthHandler(monitor HealthReporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := monitor.Status()
		if status.CheckedAt.IsZero() {
			status = monitor.CheckNow(c.Request.Context())
		}

		code := http.StatusOK
		if !status.Healthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	}
}
