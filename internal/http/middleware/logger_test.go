package middleware

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func TestLoggerEmitsRequestFields(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	r := gin.New()
	r.Use(RequestID())
	r.Use(Logger(logger))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "rid-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	out := buf.String()
	for _, field := range []string{`"request_id":"rid-123"`, `"path":"/ping"`, `"status":204`, `"client_ip"`} {
		if !strings.Contains(out, field) {
			t.Fatalf("log line missing %s: %s", field, out)
		}
	}
}

func TestLoggerEscalatesHandlerErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	r := gin.New()
	r.Use(RequestID())
	r.Use(Logger(logger))
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(fmt.Errorf("downstream failed"))
		c.Status(http.StatusInternalServerError)
	})

	req, _ := http.NewRequest(http.MethodGet, "/boom", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	out := buf.String()
	if !strings.Contains(out, `"level":"error"`) {
		t.Fatalf("expected error level line, got %s", out)
	}
	if !strings.Contains(out, "downstream failed") {
		t.Fatalf("expected handler error in line, got %s", out)
	}
}
