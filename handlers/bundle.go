package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle carries every HTTP handler the router mounts.
type HandlerBundle struct {
	// Reminder admin endpoints
	ListDueRemindersHandler gin.HandlerFunc
	DispatchHandler         gin.HandlerFunc

	HealthHandler gin.HandlerFunc
}
