// Package auth registers and signs in readers.
//
// Passwords are stored as bcrypt hashes. A signed-in visitor is identified by
// the user ID held in an scs session backed by SQLite; LoadUser resolves that
// ID once per request and handlers read it with CurrentUser.
//
// # Configuration
//
//	AUTH_SESSION_SECRET=<hex-32-bytes>     # CSRF signing key, generated if empty
//	AUTH_SESSION_LIFETIME=24h              # Session duration
//	AUTH_BCRYPT_COST=12                    # bcrypt cost factor
//	AUTH_MIN_PASSWORD_LENGTH=8             # Registration password minimum
//	AUTH_SECURE_COOKIES=true               # HTTPS-only cookies
//	AUTH_MAX_LOGIN_ATTEMPTS=5              # Failures before lockout
//
// # Usage
//
//	authService := auth.NewService(users.NewRepository(db.DB), cfg.Auth)
//	sessions, _ := auth.NewSessionManager(sqlDB, cfg.Auth)
//	mw := auth.NewMiddleware(authService, sessions)
//	router.Use(sessions.SessionLoadSave(), mw.LoadUser())
//
// Extract the user in handlers:
//
//	user := auth.CurrentUser(c) // nil when anonymous
package auth
