package routes

import (
	"time"

	"bridge/handlers"
	"bridge/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Options configures the router-wide middleware.
type Options struct {
	AllowOrigins []string
	AdminToken   string
}

// RegisterReminderRoutes registers the reminder admin endpoints.
func RegisterReminderRoutes(r *gin.Engine, hb *handlers.HandlerBundle, opts Options) {
	api := r.Group("/api/reminders")
	{
		api.Use(middleware.AdminTokenMiddleware(opts.AdminToken))
		api.GET("/due", hb.ListDueRemindersHandler)
		api.POST("/dispatch", hb.DispatchHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.HealthHandler)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, opts Options) {
	origins := opts.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	RegisterHealthRoute(r, hb)
	RegisterReminderRoutes(r, hb, opts)
}
