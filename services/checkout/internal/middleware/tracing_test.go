package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTracingRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(NewTracingMiddleware().Handle())
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"trace_id":       c.GetString("trace_id"),
			"correlation_id": c.GetString("correlation_id"),
		})
	})

	return router
}

func TestTracing_GeneratesIDs(t *testing.T) {
	router := setupTracingRouter()

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	traceID := w.Header().Get(HeaderTraceID)
	correlationID := w.Header().Get(HeaderCorrelationID)

	require.NotEmpty(t, traceID)
	require.NotEmpty(t, correlationID)

	_, err := uuid.Parse(traceID)
	assert.NoError(t, err, "сгенерированный trace_id — валидный UUID")
	_, err = uuid.Parse(correlationID)
	assert.NoError(t, err)
}

func TestTracing_PropagatesIncomingIDs(t *testing.T) {
	router := setupTracingRouter()

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderTraceID, "trace-123")
	req.Header.Set(HeaderCorrelationID, "corr-456")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "trace-123", w.Header().Get(HeaderTraceID))
	assert.Equal(t, "corr-456", w.Header().Get(HeaderCorrelationID))
	assert.Contains(t, w.Body.String(), "trace-123")
	assert.Contains(t, w.Body.String(), "corr-456")
}

func TestTracing_RequestIDAlias(t *testing.T) {
	router := setupTracingRouter()

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "req-789")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-789", w.Header().Get(HeaderTraceID),
		"X-Request-ID принимается как алиас trace id")
}
