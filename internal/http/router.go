package http

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookstore/internal/auth"
	"github.com/mrlokans/bookstore/web"
)

// Router is the configured engine plus the resources it owns.
type Router struct {
	*gin.Engine
	authController *auth.AuthController
}

// Stop releases background resources held by the router's controllers.
func (r *Router) Stop() {
	if r.authController != nil {
		r.authController.Stop()
	}
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) (*Router, error) {
	templates := web.Templates()
	if cfg.TemplatesPath != "" {
		templates = os.DirFS(cfg.TemplatesPath)
	}
	renderer, err := NewPageRenderer(templates, cfg.SessionManager)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.HTMLRender = renderer

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.AuthConfig.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}

	// Session state must be loaded before anything reads flashes or identity.
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.AuthConfig.SecureCookies))
	}

	var middleware *auth.Middleware
	if cfg.AuthService != nil && cfg.SessionManager != nil {
		middleware = auth.NewMiddleware(cfg.AuthService, cfg.SessionManager)
		router.Use(middleware.LoadUser())
	}

	static := web.Static()
	if cfg.StaticPath != "" {
		static = os.DirFS(cfg.StaticPath)
	}
	router.StaticFS("/static", http.FS(static))

	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	result := &Router{Engine: router}

	if cfg.AuthService != nil && cfg.SessionManager != nil {
		result.authController = auth.NewAuthController(cfg.AuthService, cfg.SessionManager, renderer, cfg.AuthConfig)
		result.authController.RegisterRoutes(router)
	}

	if cfg.Catalog != nil {
		pages := NewPagesController(cfg.Catalog, cfg.SessionManager, renderer, cfg.HomeBooksLimit)
		router.GET("/", pages.Home)
		router.GET("/books", pages.Books)
		router.GET("/book/:id", pages.Book)
		router.POST("/book/:id", pages.PostReview)
		if middleware != nil {
			router.GET("/account", middleware.RequireUser(MsgLoginToAccount), pages.Account)
		}
		router.NoRoute(pages.NotFound)
	}

	return result, nil
}
