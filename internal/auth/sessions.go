package auth

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/mrlokans/bookstore/internal/config"
	"github.com/mrlokans/bookstore/internal/entities"
)

// Session data keys
const (
	SessionKeyUserID        = "user_id"
	SessionKeyFlashMessage  = "flash_message"
	SessionKeyFlashCategory = "flash_category"
)

// Flash categories, matching the alert styles of the templates.
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashWarning = "warning"
	FlashDanger  = "danger"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string
	Message  string
}

// SessionManager wraps scs.SessionManager with application-specific methods.
// The session carries the signed-in user's ID and at most one pending flash.
type SessionManager struct {
	*scs.SessionManager
}

// NewSessionManager creates a configured session manager.
// The sqlDB parameter should be the underlying *sql.DB from GORM.
func NewSessionManager(sqlDB *sql.DB, cfg config.Auth) (*SessionManager, error) {
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, err
	}

	lifetime := cfg.SessionLifetime
	if lifetime <= 0 {
		lifetime = 24 * time.Hour
	}

	sm := scs.New()
	sm.Store = sqlite3store.New(sqlDB)
	sm.Lifetime = lifetime

	sm.Cookie.Name = "session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	// Lax keeps the session on top-level navigation from other sites.
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm}, nil
}

// CreateSession signs user in on the current session. The token is renewed
// first so a pre-login token cannot be reused.
func (sm *SessionManager) CreateSession(ctx context.Context, user *entities.User) error {
	if err := sm.RenewToken(ctx); err != nil {
		return err
	}
	// Stored as int to match GetInt() retrieval
	sm.Put(ctx, SessionKeyUserID, int(user.ID))
	return nil
}

// SignOut drops the user and issues a new token, so the old cookie no longer
// reaches this session. A pending flash is kept.
func (sm *SessionManager) SignOut(ctx context.Context) error {
	sm.ClearUser(ctx)
	return sm.RenewToken(ctx)
}

// ClearUser signs the session out without discarding a pending flash.
func (sm *SessionManager) ClearUser(ctx context.Context) {
	sm.Remove(ctx, SessionKeyUserID)
}

// GetUserID retrieves the user ID from the session.
// Returns 0 if not authenticated.
func (sm *SessionManager) GetUserID(ctx context.Context) uint {
	return uint(sm.GetInt(ctx, SessionKeyUserID))
}

// AddFlash queues a message for the next rendered page, replacing any
// message that was not shown yet.
func (sm *SessionManager) AddFlash(ctx context.Context, category, message string) {
	sm.Put(ctx, SessionKeyFlashCategory, category)
	sm.Put(ctx, SessionKeyFlashMessage, message)
}

// PopFlash returns and clears the pending message, or nil.
func (sm *SessionManager) PopFlash(ctx context.Context) *Flash {
	message := sm.PopString(ctx, SessionKeyFlashMessage)
	category := sm.PopString(ctx, SessionKeyFlashCategory)
	if message == "" {
		return nil
	}
	if category == "" {
		category = FlashInfo
	}
	return &Flash{Category: category, Message: message}
}
