package http

import (
	"github.com/mrlokans/bookstore/internal/auth"
	"github.com/mrlokans/bookstore/internal/config"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Catalog  CatalogService
	Database Pinger

	// Authentication
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	AuthConfig     config.Auth
	CSRFSecret     []byte

	// UI paths; empty means the embedded copies
	TemplatesPath string
	StaticPath    string

	// Number of books on the home page
	HomeBooksLimit int

	// Application info
	Version string
}
