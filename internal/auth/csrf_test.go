package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

var testCSRFSecret = []byte("test-secret-key-32-bytes-long!!!")

func newCSRFRouter(handled *bool) *gin.Engine {
	router := gin.New()
	router.Use(CSRFMiddleware(testCSRFSecret, false))
	router.GET("/form", func(c *gin.Context) {
		c.String(http.StatusOK, GetCSRFToken(c))
	})
	router.POST("/form", func(c *gin.Context) {
		*handled = true
		c.Status(http.StatusOK)
	})
	return router
}

func TestCSRFMiddleware_AllowsGET(t *testing.T) {
	var handled bool
	router := newCSRFRouter(&handled)

	req := httptest.NewRequest(http.MethodGet, "/form", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200 for GET request, got %d", rr.Code)
	}
	if rr.Body.String() == "" {
		t.Error("Expected a CSRF token in the context")
	}
}

func TestCSRFMiddleware_BlocksPOSTWithoutToken(t *testing.T) {
	var handled bool
	router := newCSRFRouter(&handled)

	req := httptest.NewRequest(http.MethodPost, "/form", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for POST without CSRF token, got %d", rr.Code)
	}
	if handled {
		t.Error("Handler must not run when the CSRF check fails")
	}
}

func TestCSRFMiddleware_AcceptsValidToken(t *testing.T) {
	var handled bool
	router := newCSRFRouter(&handled)

	getReq := httptest.NewRequest(http.MethodGet, "/form", nil)
	getRR := httptest.NewRecorder()
	router.ServeHTTP(getRR, getReq)
	token := getRR.Body.String()

	form := url.Values{CSRFFieldName: {token}}
	postReq := httptest.NewRequest(http.MethodPost, "/form", strings.NewReader(form.Encode()))
	postReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, cookie := range getRR.Result().Cookies() {
		postReq.AddCookie(cookie)
	}
	postRR := httptest.NewRecorder()
	router.ServeHTTP(postRR, postReq)

	if postRR.Code != http.StatusOK {
		t.Errorf("Expected 200 for POST with a valid token, got %d", postRR.Code)
	}
	if !handled {
		t.Error("Handler should run after a valid CSRF check")
	}
}

func TestCSRFMiddleware_RejectsForeignOrigin(t *testing.T) {
	var handled bool
	router := newCSRFRouter(&handled)

	getRR := httptest.NewRecorder()
	router.ServeHTTP(getRR, httptest.NewRequest(http.MethodGet, "/form", nil))

	form := url.Values{CSRFFieldName: {getRR.Body.String()}}
	req := httptest.NewRequest(http.MethodPost, "/form", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Origin", "http://evil.example")
	for _, cookie := range getRR.Result().Cookies() {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for a cross-origin POST, got %d", rr.Code)
	}
}

func TestCSRFTokenField(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if got := CSRFTokenField(c); got != "" {
		t.Errorf("Expected empty field without a token, got %q", got)
	}

	c.Set(contextKeyCSRFToken, "abc")
	want := `<input type="hidden" name="gorilla.csrf.Token" value="abc">`
	if got := string(CSRFTokenField(c)); got != want {
		t.Errorf("CSRFTokenField() = %q, want %q", got, want)
	}
}
