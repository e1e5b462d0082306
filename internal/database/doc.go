// Package database provides the data access layer for the bookstore.
//
// # Architecture
//
// The database layer is organized into table-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, pragmas, migrations
//	├── errors.go        # Sentinel errors and constraint classification
//	├── users/           # Registered readers
//	├── books/           # Catalog listing and seeding
//	├── reviews/         # Review creation and listings
//	└── stats/           # Reader-score summaries
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./bookstore.db")
//
//	booksRepo := books.NewRepository(db.DB)
//	reviewsRepo := reviews.NewRepository(db.DB)
//
//	book, err := booksRepo.GetBookByID(ctx, 3)
//	list, err := reviewsRepo.ListForBook(ctx, book.ID)
//
// # Errors
//
// Repositories return ErrNotFound for missing rows, ErrDuplicateEmail for a
// taken email and a *ValidationError (matching ErrValidation) for rejected
// input. Constraint failures from SQLite are classified with
// IsUniqueViolation and IsForeignKeyViolation.
//
// # Interface Implementations
//
//   - users.Repository: implements auth.UserStore
//   - books.Repository: implements services.BookStore
//   - reviews.Repository: implements services.ReviewStore
//   - stats.Repository: implements services.StatsStore and tasks.StatsRebuilder
package database
