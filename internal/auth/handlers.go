package auth

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookstore/internal/config"
	"github.com/mrlokans/bookstore/internal/database"
)

// Messages shown to the visitor after an auth action.
const (
	MsgLoginSuccessful    = "Login successful!"
	MsgInvalidLogin       = "Invalid login details"
	MsgTooManyAttempts    = "Too many login attempts. Please try again later."
	MsgEmailRegistered    = "Email already registered"
	MsgRegistrationDone   = "Registration successful! You may now login."
	MsgLoggedOut          = "Logged out successfully"
	MsgRegistrationFailed = "Registration failed. Please try again."
)

// isLocalPath validates that a redirect path is local to prevent open redirect attacks.
// Returns true if the path is safe for redirect (local path only).
func isLocalPath(path string) bool {
	if path == "" {
		return false
	}

	// Must start with /
	if !strings.HasPrefix(path, "/") {
		return false
	}

	// Reject protocol-relative URLs (//evil.com)
	if strings.HasPrefix(path, "//") {
		return false
	}

	// Reject URLs with schemes
	if strings.Contains(path, "://") {
		return false
	}

	// Reject paths with backslashes (potential bypass attempts)
	if strings.Contains(path, "\\") {
		return false
	}

	return true
}

// sanitizeRedirectPath returns a safe redirect path, defaulting to "/" if invalid.
func sanitizeRedirectPath(path string) string {
	if isLocalPath(path) {
		return path
	}
	return "/"
}

// Renderer renders a named page template with the shared layout data.
type Renderer interface {
	Render(c *gin.Context, status int, name string, data gin.H)
}

// AuthController serves the login, registration and logout pages.
type AuthController struct {
	service        *Service
	sessionManager *SessionManager
	renderer       Renderer
	rateLimiter    *RateLimiter
}

// NewAuthController creates a new authentication controller.
func NewAuthController(service *Service, sessionManager *SessionManager, renderer Renderer, cfg config.Auth) *AuthController {
	return &AuthController{
		service:        service,
		sessionManager: sessionManager,
		renderer:       renderer,
		rateLimiter: NewRateLimiter(RateLimitConfig{
			MaxAttempts:     cfg.MaxLoginAttempts,
			WindowDuration:  cfg.RateLimitWindow,
			LockoutDuration: cfg.LockoutDuration,
		}),
	}
}

// RegisterRoutes registers authentication routes on the router.
func (ac *AuthController) RegisterRoutes(router gin.IRoutes) {
	router.GET("/login", ac.LoginPage)
	router.POST("/login", ac.Login)
	router.GET("/register", ac.RegisterPage)
	router.POST("/register", ac.Register)
	router.POST("/logout", ac.Logout)
	router.GET("/logout", ac.Logout) // Support GET for simple logout links
}

// Stop cleans up resources (rate limiter background goroutine).
func (ac *AuthController) Stop() {
	if ac.rateLimiter != nil {
		ac.rateLimiter.Stop()
	}
}

// LoginPage renders the login form.
func (ac *AuthController) LoginPage(c *gin.Context) {
	if IsAuthenticated(c) {
		c.Redirect(http.StatusFound, "/")
		return
	}

	ac.renderer.Render(c, http.StatusOK, "login.html", gin.H{
		"Title": "Login",
		"Next":  nextParam(c.Query("next")),
	})
}

// Login handles the login form submission.
func (ac *AuthController) Login(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")
	next := nextParam(c.PostForm("next"))
	clientIP := c.ClientIP()

	rerender := func(status int, message string) {
		ac.renderer.Render(c, status, "login.html", gin.H{
			"Title": "Login",
			"Next":  next,
			"Email": email,
			"Error": message,
		})
	}

	allowed, retryAfter := ac.rateLimiter.Allow(clientIP, email)
	if !allowed {
		c.Header("Retry-After", retryAfter.String())
		rerender(http.StatusTooManyRequests, MsgTooManyAttempts)
		return
	}

	user, err := ac.service.Authenticate(c.Request.Context(), email, password)
	if err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			log.Printf("Login failed for %s: %v", email, err)
		}
		ac.rateLimiter.RecordFailure(clientIP, email)
		rerender(http.StatusOK, MsgInvalidLogin)
		return
	}
	ac.rateLimiter.RecordSuccess(clientIP, email)

	ctx := c.Request.Context()
	if err := ac.sessionManager.CreateSession(ctx, user); err != nil {
		log.Printf("Failed to create session for user %d: %v", user.ID, err)
		rerender(http.StatusInternalServerError, "Failed to create session")
		return
	}
	ac.sessionManager.AddFlash(ctx, FlashSuccess, MsgLoginSuccessful)

	c.Redirect(http.StatusFound, sanitizeRedirectPath(next))
}

// RegisterPage renders the registration form.
func (ac *AuthController) RegisterPage(c *gin.Context) {
	ac.renderer.Render(c, http.StatusOK, "register.html", gin.H{
		"Title": "Register",
	})
}

// Register handles the registration form submission.
func (ac *AuthController) Register(c *gin.Context) {
	username := c.PostForm("username")
	email := c.PostForm("email")
	password := c.PostForm("password")
	ctx := c.Request.Context()

	_, err := ac.service.Register(ctx, username, email, password)
	if err != nil {
		var vErr *database.ValidationError
		switch {
		case errors.Is(err, database.ErrDuplicateEmail):
			ac.sessionManager.AddFlash(ctx, FlashWarning, MsgEmailRegistered)
			c.Redirect(http.StatusFound, "/register")
		case errors.As(err, &vErr):
			ac.renderer.Render(c, http.StatusBadRequest, "register.html", gin.H{
				"Title":    "Register",
				"Username": username,
				"Email":    email,
				"Error":    vErr.Error(),
			})
		default:
			log.Printf("Registration failed for %s: %v", email, err)
			ac.renderer.Render(c, http.StatusInternalServerError, "register.html", gin.H{
				"Title":    "Register",
				"Username": username,
				"Email":    email,
				"Error":    MsgRegistrationFailed,
			})
		}
		return
	}

	ac.sessionManager.AddFlash(ctx, FlashSuccess, MsgRegistrationDone)
	c.Redirect(http.StatusFound, "/login")
}

// Logout signs the visitor out and returns to the home page.
func (ac *AuthController) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	if err := ac.sessionManager.SignOut(ctx); err != nil {
		log.Printf("Failed to renew session token on logout: %v", err)
	}
	ac.sessionManager.AddFlash(ctx, FlashInfo, MsgLoggedOut)
	c.Redirect(http.StatusFound, "/")
}

// nextParam keeps a next value only when it is a safe local path.
func nextParam(next string) string {
	if isLocalPath(next) {
		return next
	}
	return ""
}
