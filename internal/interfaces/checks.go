package interfaces

// This file contains compile-time interface implementation checks.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/bookstore/internal/auth"
	"github.com/mrlokans/bookstore/internal/database"
	"github.com/mrlokans/bookstore/internal/database/books"
	"github.com/mrlokans/bookstore/internal/database/reviews"
	"github.com/mrlokans/bookstore/internal/database/stats"
	"github.com/mrlokans/bookstore/internal/database/users"
	"github.com/mrlokans/bookstore/internal/http"
	"github.com/mrlokans/bookstore/internal/scheduler"
	"github.com/mrlokans/bookstore/internal/services"
	"github.com/mrlokans/bookstore/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// Account storage
var _ auth.UserStore = (*users.Repository)(nil)

// Catalog storage
var _ services.BookStore = (*books.Repository)(nil)
var _ services.ReviewStore = (*reviews.Repository)(nil)
var _ services.StatsStore = (*stats.Repository)(nil)
var _ tasks.StatsRebuilder = (*stats.Repository)(nil)

// =============================================================================
// Services
// =============================================================================

var _ auth.UserResolver = (*auth.Service)(nil)
var _ http.CatalogService = (*services.Catalog)(nil)

// Reader-score refresh, queued or inline
var _ services.StatsRefresher = (*tasks.StatsEnqueuer)(nil)
var _ services.StatsRefresher = services.DirectStatsRefresher{}
var _ scheduler.FullRefresher = (*tasks.StatsEnqueuer)(nil)
var _ scheduler.FullRefresher = services.DirectStatsRefresher{}

// =============================================================================
// Presentation
// =============================================================================

var _ auth.Renderer = (*http.PageRenderer)(nil)
var _ http.Pinger = (*database.Database)(nil)
