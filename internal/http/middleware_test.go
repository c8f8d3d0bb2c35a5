package http

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"reportqa/internal/contextutil"
)

func TestLoggerMiddlewareInjectsLogger(t *testing.T) {
	var got *slog.Logger
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = contextutil.LoggerFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	LoggerMiddleware(inner).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	if got == nil {
		t.Fatal("expected logger in request context")
	}
	if got == slog.Default() {
		t.Error("expected a request-scoped logger, got the default")
	}
}

func TestCORSHeaders(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	CORS(inner).ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow-origin = %q, want *", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got == "" {
		t.Error("allow-methods header missing")
	}
}
