package utils

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestLoggerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	router := gin.New()
	router.Use(RequestID(), LoggerMiddleware(logger), ContextLogger(logger))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/quizzes/:id", func(c *gin.Context) {
		GetLoggerFromContext(c, logger).Info("Loading quiz")
		c.Status(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, buf.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/quizzes/42", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-1", w.Header().Get(RequestIDHeader))
	out := buf.String()
	assert.Contains(t, out, `"msg":"Loading quiz"`)
	assert.Contains(t, out, `"request_id":"req-1"`)
	assert.Contains(t, out, `"level":"WARN","msg":"HTTP Request"`)
	assert.Contains(t, out, `"status_code":404`)
}
