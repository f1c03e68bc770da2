package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"amen-chat/internal/services"
	"amen-chat/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggingMiddlewareTagsAuthenticatedUser(t *testing.T) {
	gin.SetMode(gin.TestMode)

	core, logs := observer.New(zapcore.InfoLevel)
	l := &logger.Logger{Logger: zap.New(core)}

	r := gin.New()
	r.Use(LoggingMiddleware(l))
	r.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(services.WithUserID(c.Request.Context(), "alice"))
	})
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "alice", fields["user_id"])
	assert.Equal(t, "/ping", fields["path"])
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, int64(http.StatusNoContent), fields["status"])
}

func TestLoggingMiddlewareWithoutUser(t *testing.T) {
	gin.SetMode(gin.TestMode)

	core, logs := observer.New(zapcore.InfoLevel)
	l := &logger.Logger{Logger: zap.New(core)}

	r := gin.New()
	r.Use(LoggingMiddleware(l))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	_, tagged := entries[0].ContextMap()["user_id"]
	assert.False(t, tagged)
}
