package services

import (
	"context"

	"github.com/mrlokans/bookstore/internal/database/books"
	"github.com/mrlokans/bookstore/internal/entities"
)

// BookStore provides catalog reads and seeding.
type BookStore interface {
	ListBooks(ctx context.Context, limit int) ([]entities.Book, error)
	GetBookByID(ctx context.Context, id uint) (*entities.Book, error)
	SeedCatalog(ctx context.Context, seed []entities.Book) (books.SeedResult, error)
	ReplaceCatalog(ctx context.Context, seed []entities.Book) (books.SeedResult, error)
}

// ReviewStore persists reviews and lists them with their joined rows.
type ReviewStore interface {
	CreateReview(ctx context.Context, review *entities.Review) error
	ListForBook(ctx context.Context, bookID uint) ([]entities.Review, error)
	ListForUser(ctx context.Context, userID uint) ([]entities.Review, error)
}

// StatsStore reads and rebuilds reader-score summaries.
type StatsStore interface {
	GetBookStats(ctx context.Context, bookID uint) (*entities.BookStats, error)
	RefreshBook(ctx context.Context, bookID uint) (*entities.BookStats, error)
	RefreshAll(ctx context.Context) (int, error)
}

// StatsRefresher is asked to bring a book's summary up to date after a
// review is posted. Implementations may do the work later.
type StatsRefresher interface {
	RequestBookRefresh(ctx context.Context, bookID uint) error
	RequestFullRefresh(ctx context.Context) error
}
