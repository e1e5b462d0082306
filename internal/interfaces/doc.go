// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - auth.UserStore: account persistence (internal/auth/service.go)
//   - services.BookStore: catalog reads and seeding (internal/services/interfaces.go)
//   - services.ReviewStore: review persistence (internal/services/interfaces.go)
//   - services.StatsStore: reader-score summaries (internal/services/interfaces.go)
//
// ## Background Work Interfaces
//
//   - services.StatsRefresher: asks for summaries to be rebuilt after a review
//     is posted; implemented inline (services.DirectStatsRefresher) or through
//     the task queue (tasks.StatsEnqueuer)
//   - tasks.StatsRebuilder: what the queue processors call
//   - scheduler.FullRefresher: what the nightly rebuild calls
//
// ## Presentation Interfaces
//
//   - http.CatalogService: everything the catalog pages need
//   - auth.Renderer: page rendering for the login and registration forms
//   - http.Pinger: datastore health probe
//
// # Adding a New Database Domain
//
//  1. Create sub-package: internal/database/wishlist/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Register the entity in database.NewDatabase's AutoMigrate list
//
//  4. Add compile-time check:
//
//     var _ services.WishlistStore = (*Repository)(nil)
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the full list.
package interfaces
