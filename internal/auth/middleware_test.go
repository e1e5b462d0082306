package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookstore/internal/config"
	"github.com/mrlokans/bookstore/internal/database/users"
)

type middlewareFixture struct {
	router  *gin.Engine
	sm      *SessionManager
	service *Service
}

func setupMiddleware(t *testing.T) *middlewareFixture {
	t.Helper()
	db := setupTestDB(t)
	sqlDB, err := db.DB.DB()
	require.NoError(t, err)

	sm, err := NewSessionManager(sqlDB, config.Auth{})
	require.NoError(t, err)
	service := NewService(users.NewRepository(db.DB), config.Auth{BcryptCost: 4})
	mw := NewMiddleware(service, sm)

	router := gin.New()
	router.Use(sm.SessionLoadSave(), mw.LoadUser())

	// Test-only sign-in endpoint.
	router.POST("/signin/:email", func(c *gin.Context) {
		user, err := service.Authenticate(c.Request.Context(), c.Param("email"), "password123")
		require.NoError(t, err)
		require.NoError(t, sm.CreateSession(c.Request.Context(), user))
		c.Status(http.StatusNoContent)
	})
	router.GET("/whoami", func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, user.Username)
	})
	router.GET("/account", mw.RequireUser("You must be logged in to access your account"), func(c *gin.Context) {
		c.String(http.StatusOK, "account of %d", GetUserID(c))
	})
	router.GET("/flash", func(c *gin.Context) {
		if f := sm.PopFlash(c.Request.Context()); f != nil {
			c.String(http.StatusOK, f.Category+": "+f.Message)
			return
		}
		c.String(http.StatusOK, "")
	})

	return &middlewareFixture{router: router, sm: sm, service: service}
}

func (f *middlewareFixture) do(method, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestMiddleware_AnonymousRequest(t *testing.T) {
	f := setupMiddleware(t)

	rec := f.do(http.MethodGet, "/whoami", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())
}

func TestMiddleware_LoadsSignedInUser(t *testing.T) {
	f := setupMiddleware(t)
	_, err := f.service.Register(context.Background(), "alice", "alice@example.com", "password123")
	require.NoError(t, err)

	rec := f.do(http.MethodPost, "/signin/alice@example.com", nil)
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)

	rec = f.do(http.MethodGet, "/whoami", cookie)
	assert.Equal(t, "alice", rec.Body.String())
}

func TestMiddleware_RequireUser(t *testing.T) {
	f := setupMiddleware(t)

	t.Run("anonymous is redirected with a flash", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/account", nil)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login?next=%2Faccount", rec.Header().Get("Location"))

		cookie := sessionCookie(rec)
		require.NotNil(t, cookie)
		rec = f.do(http.MethodGet, "/flash", cookie)
		assert.Equal(t, "warning: You must be logged in to access your account", rec.Body.String())
	})

	t.Run("signed in passes", func(t *testing.T) {
		user, err := f.service.Register(context.Background(), "bob", "bob@example.com", "password123")
		require.NoError(t, err)
		cookie := sessionCookie(f.do(http.MethodPost, "/signin/bob@example.com", nil))
		require.NotNil(t, cookie)

		rec := f.do(http.MethodGet, "/account", cookie)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "account of "+itoa(user.ID), rec.Body.String())
	})
}

func TestMiddleware_StaleSessionIsCleared(t *testing.T) {
	f := setupMiddleware(t)
	user, err := f.service.Register(context.Background(), "carol", "carol@example.com", "password123")
	require.NoError(t, err)
	cookie := sessionCookie(f.do(http.MethodPost, "/signin/carol@example.com", nil))
	require.NotNil(t, cookie)

	db := setupTestDB(t) // unrelated database, the user is gone from the resolver's view
	f.router = gin.New()
	f.router.Use(f.sm.SessionLoadSave(), NewMiddleware(NewService(users.NewRepository(db.DB), config.Auth{}), f.sm).LoadUser())
	f.router.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, "%d/%d", GetUserID(c), f.sm.GetUserID(c.Request.Context()))
	})

	rec := f.do(http.MethodGet, "/whoami", cookie)
	assert.Equal(t, "0/0", rec.Body.String())
	assert.NotZero(t, user.ID)
}

func TestLoginURL(t *testing.T) {
	assert.Equal(t, "/login", LoginURL(""))
	assert.Equal(t, "/login", LoginURL("/"))
	assert.Equal(t, "/login?next=%2Fbook%2F3", LoginURL("/book/3"))
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
