package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mrlokans/bookstore/internal/auth"
	"github.com/mrlokans/bookstore/internal/catalog"
	"github.com/mrlokans/bookstore/internal/config"
	"github.com/mrlokans/bookstore/internal/database"
	"github.com/mrlokans/bookstore/internal/database/books"
	"github.com/mrlokans/bookstore/internal/database/reviews"
	"github.com/mrlokans/bookstore/internal/database/stats"
	"github.com/mrlokans/bookstore/internal/database/users"
	http_controllers "github.com/mrlokans/bookstore/internal/http"
	"github.com/mrlokans/bookstore/internal/scheduler"
	"github.com/mrlokans/bookstore/internal/services"
	"github.com/mrlokans/bookstore/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// App is a fully wired site, ready to serve.
type App struct {
	Router  *http_controllers.Router
	Catalog *services.Catalog

	db         *database.Database
	taskClient *tasks.Client
	taskCancel context.CancelFunc
	rebuild    *scheduler.StatsRebuildScheduler
}

// Shutdown stops background work and releases resources.
func (a *App) Shutdown(ctx context.Context) {
	if a.rebuild != nil {
		a.rebuild.Stop()
	}
	if a.taskClient != nil {
		a.taskClient.Stop(ctx)
		if a.taskCancel != nil {
			a.taskCancel()
		}
		if err := a.taskClient.Close(); err != nil {
			log.Printf("Error closing task client: %v", err)
		}
	}
	if a.Router != nil {
		a.Router.Stop()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}
}

// csrfSecret decodes the configured secret (hex, else raw bytes) or
// generates a fresh one.
func csrfSecret(configured string) ([]byte, error) {
	if configured != "" {
		secret, err := hex.DecodeString(configured)
		if err != nil {
			// Not hex, use as raw bytes
			secret = []byte(configured)
		}
		return secret, nil
	}

	generated, err := auth.GenerateSessionSecret()
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSRF secret: %w", err)
	}
	log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
	return hex.DecodeString(generated)
}

// Build opens the database and wires every component. On error everything
// opened so far is closed.
func Build(cfg *config.Config, version string) (app *App, err error) {
	app = &App{}
	defer func() {
		if err != nil {
			app.Shutdown(context.Background())
			app = nil
		}
	}()

	app.db, err = database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return app, fmt.Errorf("failed to initialize database: %w", err)
	}
	db := app.db

	bookRepo := books.NewRepository(db.DB)
	statsRepo := stats.NewRepository(db.DB)

	// Reader-score refreshes go through the task queue when it is enabled.
	var refresher services.StatsRefresher = services.DirectStatsRefresher{Stats: statsRepo}
	if cfg.Tasks.Enabled {
		app.taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.ConfigFrom(cfg.Tasks))
		if err != nil {
			return app, fmt.Errorf("failed to initialize task queue: %w", err)
		}
		tasks.RegisterStatsQueues(app.taskClient, statsRepo)

		var taskCtx context.Context
		taskCtx, app.taskCancel = context.WithCancel(context.Background())
		go app.taskClient.Start(taskCtx)

		refresher = tasks.NewStatsEnqueuer(app.taskClient)
	} else {
		log.Printf("Task queue disabled: reader scores are refreshed inline")
	}

	app.Catalog = services.NewCatalog(bookRepo, reviews.NewRepository(db.DB), statsRepo, refresher)

	if cfg.Catalog.SeedOnStart {
		entries, err := catalog.Load(cfg.Catalog.Path)
		if err != nil {
			return app, fmt.Errorf("failed to load catalog: %w", err)
		}
		result, err := app.Catalog.SeedCatalog(context.Background(), entries)
		if err != nil {
			return app, err
		}
		log.Printf("Catalog seeded: %s", result)
	}

	if cfg.StatsRebuild.Enabled {
		app.rebuild = scheduler.NewStatsRebuildScheduler(refresher, cfg.StatsRebuild.Schedule)
		if err := app.rebuild.Start(context.Background()); err != nil {
			return app, err
		}
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return app, fmt.Errorf("failed to get SQL DB for sessions: %w", err)
	}
	sessionManager, err := auth.NewSessionManager(sqlDB, cfg.Auth)
	if err != nil {
		return app, fmt.Errorf("failed to initialize session manager: %w", err)
	}

	secret, err := csrfSecret(cfg.Auth.SessionSecret)
	if err != nil {
		return app, err
	}

	app.Router, err = http_controllers.NewRouter(http_controllers.RouterConfig{
		Catalog:        app.Catalog,
		Database:       db,
		AuthService:    auth.NewService(users.NewRepository(db.DB), cfg.Auth),
		SessionManager: sessionManager,
		AuthConfig:     cfg.Auth,
		CSRFSecret:     secret,
		TemplatesPath:  cfg.UI.TemplatesPath,
		StaticPath:     cfg.UI.StaticPath,
		HomeBooksLimit: cfg.Catalog.HomeBooksLimit,
		Version:        version,
	})
	if err != nil {
		return app, err
	}

	return app, nil
}

func Serve(handler http.Handler, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Bookstore v%s", version)

	app, err := Build(cfg, version)
	if err != nil {
		log.Fatalf("Startup failed: %v", err)
	}

	Serve(app.Router, cfg, app.Shutdown)
}
