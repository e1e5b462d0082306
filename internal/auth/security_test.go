package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

// TestOpenRedirectPrevention verifies that redirect paths are properly sanitized.
func TestOpenRedirectPrevention(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty path", "", "/"},
		{"root path", "/", "/"},
		{"local path", "/account", "/account"},
		{"book page", "/book/3", "/book/3"},
		{"protocol-relative URL", "//evil.com", "/"},
		{"full URL with scheme", "https://evil.com", "/"},
		{"URL with scheme in path", "/https://evil.com", "/"}, // Contains :// so rejected for safety
		{"backslash escape attempt", "/foo\\bar", "/"},
		{"backslash at start", "\\evil.com", "/"},
		{"data URL", "data:text/html,<script>", "/"},
		{"javascript URL", "javascript:alert(1)", "/"},
		{"no leading slash", "evil.com", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sanitizeRedirectPath(tt.input)
			if result != tt.expected {
				t.Errorf("sanitizeRedirectPath(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

// TestIsLocalPath verifies local path detection.
func TestIsLocalPath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"empty", "", false},
		{"root", "/", true},
		{"local path", "/foo/bar", true},
		{"protocol-relative", "//evil.com", false},
		{"full URL", "https://evil.com", false},
		{"no leading slash", "foo/bar", false},
		{"backslash", "/foo\\bar", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isLocalPath(tt.input)
			if result != tt.expected {
				t.Errorf("isLocalPath(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func newTestRateLimiter(max int) *RateLimiter {
	return NewRateLimiter(RateLimitConfig{
		MaxAttempts:     max,
		WindowDuration:  time.Minute,
		LockoutDuration: time.Minute,
		CleanupInterval: time.Hour, // Long interval to prevent cleanup during test
	})
}

func TestRateLimiter_LocksAfterMaxFailures(t *testing.T) {
	rl := newTestRateLimiter(3)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		allowed, _ := rl.Allow("192.168.1.1", "reader@example.com")
		if !allowed {
			t.Errorf("Attempt %d should be allowed", i+1)
		}
		rl.RecordFailure("192.168.1.1", "reader@example.com")
	}

	allowed, retryAfter := rl.Allow("192.168.1.1", "reader@example.com")
	if allowed {
		t.Error("4th attempt should be blocked")
	}
	if retryAfter == 0 {
		t.Error("retryAfter should be non-zero when blocked")
	}
}

func TestRateLimiter_SuccessResetsCounter(t *testing.T) {
	rl := newTestRateLimiter(3)
	defer rl.Stop()

	rl.RecordFailure("192.168.1.1", "reader@example.com")
	rl.RecordFailure("192.168.1.1", "reader@example.com")
	rl.RecordSuccess("192.168.1.1", "reader@example.com")

	rl.RecordFailure("192.168.1.1", "reader@example.com")
	rl.RecordFailure("192.168.1.1", "reader@example.com")
	if allowed, _ := rl.Allow("192.168.1.1", "reader@example.com"); !allowed {
		t.Error("Should be allowed, the counter restarted after a success")
	}
}

func TestRateLimiter_KeyedByIPAndEmail(t *testing.T) {
	rl := newTestRateLimiter(2)
	defer rl.Stop()

	rl.RecordFailure("192.168.1.1", "a@example.com")
	rl.RecordFailure("192.168.1.1", "A@Example.com")

	if allowed, _ := rl.Allow("192.168.1.1", "a@example.com"); allowed {
		t.Error("Case variants of one email share a counter")
	}
	if allowed, _ := rl.Allow("192.168.1.1", "b@example.com"); !allowed {
		t.Error("Other emails should be allowed")
	}
	if allowed, _ := rl.Allow("10.0.0.1", "a@example.com"); !allowed {
		t.Error("Other addresses should be allowed")
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{
		MaxAttempts:     1,
		WindowDuration:  time.Millisecond,
		LockoutDuration: time.Millisecond,
		CleanupInterval: time.Hour,
	})
	defer rl.Stop()

	rl.RecordFailure("192.168.1.1", "a@example.com")
	time.Sleep(5 * time.Millisecond)
	rl.cleanup()

	rl.mu.RLock()
	remaining := len(rl.attempts)
	rl.mu.RUnlock()
	if remaining != 0 {
		t.Errorf("Expected expired records to be removed, %d left", remaining)
	}
}

func TestSecurityHeaders(t *testing.T) {
	router := gin.New()
	router.Use(SecurityHeadersMiddleware())
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	headers := map[string]string{
		"X-Frame-Options":        "DENY",
		"X-Content-Type-Options": "nosniff",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}

	for header, expected := range headers {
		if got := rr.Header().Get(header); got != expected {
			t.Errorf("Header %s = %q, want %q", header, got, expected)
		}
	}

	csp := rr.Header().Get("Content-Security-Policy")
	if !strings.Contains(csp, "frame-ancestors 'none'") {
		t.Errorf("Content-Security-Policy = %q, want frame-ancestors 'none'", csp)
	}
	if !strings.Contains(csp, "form-action 'self' https://example.com") {
		t.Errorf("Content-Security-Policy = %q, want form-action for the request host", csp)
	}

	if pp := rr.Header().Get("Permissions-Policy"); pp == "" {
		t.Error("Permissions-Policy header should be set")
	}
}

func TestHSTSHeader(t *testing.T) {
	router := gin.New()
	router.Use(StrictTransportSecurityMiddleware())
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// HTTP request - should not have HSTS
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if hsts := rr.Header().Get("Strict-Transport-Security"); hsts != "" {
		t.Error("HSTS should not be set for HTTP requests")
	}

	// HTTPS request (via X-Forwarded-Proto) - should have HSTS
	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if hsts := rr.Header().Get("Strict-Transport-Security"); hsts == "" {
		t.Error("HSTS should be set for HTTPS requests")
	}
}
