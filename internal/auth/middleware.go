package auth

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookstore/internal/database"
	"github.com/mrlokans/bookstore/internal/entities"
)

// Context keys for user data
const (
	ContextKeyUser   = "auth_user"
	ContextKeyUserID = "auth_user_id"
)

// UserResolver turns a session's user ID into a user.
type UserResolver interface {
	GetUserByID(ctx context.Context, id uint) (*entities.User, error)
}

// Middleware resolves the session identity of each request.
type Middleware struct {
	users          UserResolver
	sessionManager *SessionManager
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(users UserResolver, sessionManager *SessionManager) *Middleware {
	return &Middleware{
		users:          users,
		sessionManager: sessionManager,
	}
}

// LoadUser resolves the signed-in user once per request and stores it in the
// gin context. Anonymous requests pass through. A session pointing at a user
// that no longer exists is signed out.
func (m *Middleware) LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		userID := m.sessionManager.GetUserID(ctx)
		if userID == 0 {
			c.Next()
			return
		}

		user, err := m.users.GetUserByID(ctx, userID)
		switch {
		case errors.Is(err, database.ErrNotFound):
			m.sessionManager.ClearUser(ctx)
		case err != nil:
			log.Printf("Failed to resolve session user %d: %v", userID, err)
		default:
			c.Set(ContextKeyUser, user)
			c.Set(ContextKeyUserID, user.ID)
		}
		c.Next()
	}
}

// RequireUser sends anonymous requests to the login page with a warning
// flash. The login page returns them to the original path afterwards.
func (m *Middleware) RequireUser(message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) != nil {
			c.Next()
			return
		}
		if message != "" {
			m.sessionManager.AddFlash(c.Request.Context(), FlashWarning, message)
		}
		c.Redirect(http.StatusFound, LoginURL(c.Request.URL.Path))
		c.Abort()
	}
}

// LoginURL returns the login page address that comes back to next.
func LoginURL(next string) string {
	if next == "" || next == "/" {
		return "/login"
	}
	return "/login?next=" + url.QueryEscape(next)
}

// CurrentUser returns the signed-in user, or nil for anonymous requests.
func CurrentUser(c *gin.Context) *entities.User {
	if u, exists := c.Get(ContextKeyUser); exists {
		if user, ok := u.(*entities.User); ok {
			return user
		}
	}
	return nil
}

// GetUserID retrieves the signed-in user's ID from the context.
// Returns 0 for anonymous requests.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if userID, ok := id.(uint); ok {
			return userID
		}
	}
	return 0
}

// IsAuthenticated returns true if the request has a signed-in user.
func IsAuthenticated(c *gin.Context) bool {
	return GetUserID(c) != 0
}
