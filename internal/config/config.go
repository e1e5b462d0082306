package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		UI
		Catalog
		Auth
		Tasks
		StatsRebuild
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	UI struct {
		TemplatesPath string // Empty means the embedded templates
		StaticPath    string // Empty means the embedded static assets
	}
	Catalog struct {
		SeedOnStart    bool
		Path           string // Optional JSON catalog replacing the built-in list
		HomeBooksLimit int
	}
	Auth struct {
		SessionSecret     string
		SessionLifetime   time.Duration
		BcryptCost        int
		MinPasswordLength int
		SecureCookies     bool // Set to false for local dev without HTTPS

		// Login rate limiting
		MaxLoginAttempts int
		RateLimitWindow  time.Duration
		LockoutDuration  time.Duration
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	StatsRebuild struct {
		Enabled  bool
		Schedule string // Cron format: "0 3 * * *" = daily at 03:00
	}
)

func NewConfig() *Config {
	// A missing .env is fine, the environment alone is enough.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8080)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("templates_path", "")
	v.SetDefault("static_path", "")

	// Catalog defaults
	v.SetDefault("catalog_seed_on_start", true)
	v.SetDefault("catalog_path", "")
	v.SetDefault("home_books_limit", DefaultHomeBooksLimit)

	// Auth defaults
	v.SetDefault("auth_session_secret", "") // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "24h")
	v.SetDefault("auth_bcrypt_cost", 12)
	v.SetDefault("auth_min_password_length", 8)
	v.SetDefault("auth_secure_cookies", false)
	v.SetDefault("auth_max_login_attempts", 5)
	v.SetDefault("auth_rate_limit_window", "15m")
	v.SetDefault("auth_lockout_duration", "30m")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	v.SetDefault("stats_rebuild_enabled", true)
	v.SetDefault("stats_rebuild_schedule", "0 3 * * *")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		UI: UI{
			TemplatesPath: v.GetString("TEMPLATES_PATH"),
			StaticPath:    v.GetString("STATIC_PATH"),
		},
		Catalog: Catalog{
			SeedOnStart:    v.GetBool("CATALOG_SEED_ON_START"),
			Path:           v.GetString("CATALOG_PATH"),
			HomeBooksLimit: v.GetInt("HOME_BOOKS_LIMIT"),
		},
		Auth: Auth{
			SessionSecret:     v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:   v.GetDuration("AUTH_SESSION_LIFETIME"),
			BcryptCost:        v.GetInt("AUTH_BCRYPT_COST"),
			MinPasswordLength: v.GetInt("AUTH_MIN_PASSWORD_LENGTH"),
			SecureCookies:     v.GetBool("AUTH_SECURE_COOKIES"),
			MaxLoginAttempts:  v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:   v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:   v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		StatsRebuild: StatsRebuild{
			Enabled:  v.GetBool("STATS_REBUILD_ENABLED"),
			Schedule: v.GetString("STATS_REBUILD_SCHEDULE"),
		},
	}
}
