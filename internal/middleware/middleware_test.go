package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/OpenCovidTracking/OCT-Backend/internal/middleware"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func authedStatus(t *testing.T, hash, header string) int {
	t.Helper()
	handler := middleware.TokenAuthMiddleware(hash)(okHandler)
	req := httptest.NewRequest(http.MethodPost, "/batches", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Code
}

func TestTokenAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret-token"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	if got := authedStatus(t, string(hash), "Bearer secret-token"); got != http.StatusOK {
		t.Errorf("valid token = %d, want 200", got)
	}
	if got := authedStatus(t, string(hash), "Bearer wrong-token"); got != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", got)
	}
	if got := authedStatus(t, string(hash), ""); got != http.StatusUnauthorized {
		t.Errorf("missing header = %d, want 401", got)
	}
	if got := authedStatus(t, string(hash), "secret-token"); got != http.StatusUnauthorized {
		t.Errorf("non-bearer header = %d, want 401", got)
	}
}

func TestTokenAuthEmptyHashPassthrough(t *testing.T) {
	if got := authedStatus(t, "", ""); got != http.StatusOK {
		t.Errorf("empty hash = %d, want 200 passthrough", got)
	}
}

func TestThrottle(t *testing.T) {
	// Burst of 2, no refill within the test.
	handler := middleware.ThrottleMiddleware(rate.NewLimiter(rate.Limit(0.001), 2))(okHandler)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/public/us/daily", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d = %d, want 200", i+1, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/public/us/daily", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("exhausted limiter = %d, want 429", rec.Code)
	}
}

func TestCORSAllowList(t *testing.T) {
	handler := middleware.CORSMiddleware(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/public/states/info", nil)
	req.Header.Set("Origin", "https://opencovidtracking.org")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://opencovidtracking.org" {
		t.Errorf("allowed origin echoed %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/public/states/info", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unlisted origin got CORS header %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := middleware.CORSMiddleware(okHandler)
	req := httptest.NewRequest(http.MethodOptions, "/batches", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight = %d, want 204", rec.Code)
	}
}
