package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"bridge/handlers"
	"bridge/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func ok(name string) gin.HandlerFunc {
	return func(c *gin.Context) { c.String(http.StatusOK, name) }
}

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RateLimitMiddleware(100, zap.NewNop()))
	RegisterRoutes(r, &handlers.HandlerBundle{
		ListDueRemindersHandler: ok("due"),
		DispatchHandler:         ok("dispatch"),
		HealthHandler:           ok("health"),
	}, Options{AdminToken: "secret"})
	return r
}

func TestRegisterRoutes(t *testing.T) {
	r := newTestEngine()

	tests := []struct {
		method string
		path   string
		auth   string
		code   int
		body   string
	}{
		{http.MethodGet, "/health", "", http.StatusOK, "health"},
		{http.MethodGet, "/api/reminders/due", "Bearer secret", http.StatusOK, "due"},
		{http.MethodPost, "/api/reminders/dispatch", "Bearer secret", http.StatusOK, "dispatch"},
		{http.MethodGet, "/api/reminders/due", "", http.StatusUnauthorized, ""},
		{http.MethodPost, "/api/reminders/dispatch", "Bearer nope", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.code, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	r := newTestEngine()

	req := httptest.NewRequest(http.MethodOptions, "/api/reminders/due", nil)
	req.Header.Set("Origin", "https://admin.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
