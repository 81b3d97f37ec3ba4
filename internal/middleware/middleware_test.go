package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AgriSight/AS-Backend/internal/middleware"
	"github.com/AgriSight/AS-Backend/internal/utils"
)

// call wraps a simple 200-OK inner handler in the provided middleware,
// optionally setting headers on the request, and returns the recorded
// response.
func call(t *testing.T, mw func(http.Handler) http.Handler, method string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := mw(inner)
	req := httptest.NewRequest(method, "/test", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// TestCORSMiddleware_AllowedOrigin verifies that an allow-listed origin is
// echoed back with credentials enabled.
func TestCORSMiddleware_AllowedOrigin(t *testing.T) {
	rec := call(t, middleware.CORSMiddleware, http.MethodGet, map[string]string{
		"Origin": "http://localhost:5173",
	})

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Allow-Origin = %q, want the request origin", got)
	}
	if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Error("expected credentials to be allowed")
	}
}

// TestCORSMiddleware_UnknownOrigin verifies that an unknown origin gets no
// CORS grant but the request still succeeds.
func TestCORSMiddleware_UnknownOrigin(t *testing.T) {
	rec := call(t, middleware.CORSMiddleware, http.MethodGet, map[string]string{
		"Origin": "https://evil.example",
	})

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin = %q, want empty", got)
	}
}

// TestCORSMiddleware_Preflight verifies that OPTIONS requests short-circuit
// with 204.
func TestCORSMiddleware_Preflight(t *testing.T) {
	rec := call(t, middleware.CORSMiddleware, http.MethodOptions, map[string]string{
		"Origin": "http://localhost:5173",
	})

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}

// TestRequestIDMiddleware_GeneratesID verifies that a request without an
// X-Request-ID gets one, both on the response and in the context.
func TestRequestIDMiddleware_GeneratesID(t *testing.T) {
	var ctxID string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := utils.GetRequestIDFromContext(r.Context())
		if !ok {
			http.Error(w, "request ID not in context", http.StatusInternalServerError)
			return
		}
		ctxID = id
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	middleware.RequestIDMiddleware(inner).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body: %s", rec.Code, rec.Body.String())
	}
	headerID := rec.Header().Get("X-Request-ID")
	if headerID == "" {
		t.Fatal("no X-Request-ID on the response")
	}
	if ctxID != headerID {
		t.Errorf("context ID %q != header ID %q", ctxID, headerID)
	}
}

// TestRequestIDMiddleware_PreservesCallerID verifies that a caller-supplied
// ID is kept.
func TestRequestIDMiddleware_PreservesCallerID(t *testing.T) {
	rec := call(t, middleware.RequestIDMiddleware, http.MethodGet, map[string]string{
		"X-Request-ID": "caller-chosen-id",
	})

	if got := rec.Header().Get("X-Request-ID"); got != "caller-chosen-id" {
		t.Errorf("X-Request-ID = %q, want the caller's", got)
	}
}
