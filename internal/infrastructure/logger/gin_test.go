package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stockflow/backend/internal/domain/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func accessLog(t *testing.T, recorded *observer.ObservedLogs) observer.LoggedEntry {
	t.Helper()
	entries := recorded.FilterMessage("HTTP Request").All()
	require.Len(t, entries, 1)
	return entries[0]
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("logs success at info", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		router := gin.New()
		router.Use(GinMiddleware(zap.New(core)))
		router.GET("/products", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"items": []string{}})
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products?low_stock=true", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		entry := accessLog(t, recorded)
		assert.Equal(t, zapcore.InfoLevel, entry.Level)
		fields := entry.ContextMap()
		assert.Equal(t, "GET", fields["method"])
		assert.Equal(t, "/products", fields["path"])
		assert.Equal(t, "low_stock=true", fields["query"])
		assert.EqualValues(t, http.StatusOK, fields["status"])
	})

	t.Run("log level follows status", func(t *testing.T) {
		tests := []struct {
			status int
			level  zapcore.Level
		}{
			{http.StatusConflict, zapcore.WarnLevel},
			{http.StatusUnprocessableEntity, zapcore.WarnLevel},
			{http.StatusInternalServerError, zapcore.ErrorLevel},
		}
		for _, tt := range tests {
			core, recorded := observer.New(zapcore.InfoLevel)
			router := gin.New()
			router.Use(GinMiddleware(zap.New(core)))
			router.GET("/x", func(c *gin.Context) { c.Status(tt.status) })

			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
			assert.Equal(t, tt.level, accessLog(t, recorded).Level, "status %d", tt.status)
		}
	})

	t.Run("carries request id and actor", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		actor := identity.NewActor(uuid.New(), identity.RoleRequester, "Head of IT")

		router := gin.New()
		router.Use(func(c *gin.Context) {
			c.Set(GinRequestIDKey, "req-abc")
			c.Next()
		})
		router.Use(GinMiddleware(zap.New(core)))
		router.Use(func(c *gin.Context) {
			c.Set(GinActorKey, actor)
			c.Next()
		})
		router.POST("/requests", func(c *gin.Context) {
			assert.Equal(t, "req-abc", GetRequestID(c.Request.Context()))
			L(c.Request.Context()).Info("handler log")
			c.Status(http.StatusCreated)
		})

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/requests", nil))

		fields := accessLog(t, recorded).ContextMap()
		assert.Equal(t, "req-abc", fields["request_id"])
		assert.Equal(t, actor.ID.String(), fields["actor_id"])
		assert.Equal(t, "CHEF_SERVICE", fields["actor_role"])

		handlerLogs := recorded.FilterMessage("handler log").All()
		require.Len(t, handlerLogs, 1)
		assert.Equal(t, "req-abc", handlerLogs[0].ContextMap()["request_id"])
	})
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.InfoLevel)

	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.GET("/panic", func(c *gin.Context) {
		panic("ledger exploded")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	panics := recorded.FilterMessage("Panic recovered").All()
	require.Len(t, panics, 1)
	assert.Equal(t, "ledger exploded", panics[0].ContextMap()["error"])
}

func TestGetGinLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.NotNil(t, GetGinLogger(c))

	zapLogger := zap.NewNop()
	c.Set(GinLoggerKey, zapLogger)
	assert.Same(t, zapLogger, GetGinLogger(c))

	c.Set(GinLoggerKey, "not a logger")
	assert.NotNil(t, GetGinLogger(c))
}
