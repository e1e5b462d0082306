package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/mrlokans/bookstore/internal/database"
	"github.com/mrlokans/bookstore/internal/database/books"
	"github.com/mrlokans/bookstore/internal/entities"
)

// MaxReviewLength bounds the review text in characters.
const MaxReviewLength = 5000

// Catalog serves the book pages and accepts reviews.
type Catalog struct {
	books     BookStore
	reviews   ReviewStore
	stats     StatsStore
	refresher StatsRefresher
}

// NewCatalog creates the catalog service. A nil refresher leaves summaries
// to the scheduled rebuild.
func NewCatalog(books BookStore, reviews ReviewStore, stats StatsStore, refresher StatsRefresher) *Catalog {
	return &Catalog{
		books:     books,
		reviews:   reviews,
		stats:     stats,
		refresher: refresher,
	}
}

// ListBooks returns books in insertion order; limit <= 0 returns all.
func (s *Catalog) ListBooks(ctx context.Context, limit int) ([]entities.Book, error) {
	return s.books.ListBooks(ctx, limit)
}

// GetBook returns one book or database.ErrNotFound.
func (s *Catalog) GetBook(ctx context.Context, id uint) (*entities.Book, error) {
	return s.books.GetBookByID(ctx, id)
}

// ListReviewsForBook returns a book's reviews, oldest first, with authors.
func (s *Catalog) ListReviewsForBook(ctx context.Context, bookID uint) ([]entities.Review, error) {
	return s.reviews.ListForBook(ctx, bookID)
}

// ListReviewsForUser returns a user's reviews, oldest first, with books.
func (s *Catalog) ListReviewsForUser(ctx context.Context, userID uint) ([]entities.Review, error) {
	return s.reviews.ListForUser(ctx, userID)
}

// GetBookStats returns the reader-score summary of a book.
func (s *Catalog) GetBookStats(ctx context.Context, bookID uint) (*entities.BookStats, error) {
	return s.stats.GetBookStats(ctx, bookID)
}

// AddReview validates and stores a review by userID for bookID.
func (s *Catalog) AddReview(ctx context.Context, userID, bookID uint, rating int, text string) (*entities.Review, error) {
	text = strings.TrimSpace(text)
	switch {
	case !entities.ValidRating(rating):
		return nil, database.NewValidationError("rating", "must be between 1 and 5")
	case text == "":
		return nil, database.NewValidationError("text", "must not be empty")
	case utf8.RuneCountInString(text) > MaxReviewLength:
		return nil, database.NewValidationError("text", fmt.Sprintf("must be at most %d characters", MaxReviewLength))
	}

	review := &entities.Review{
		Rating: rating,
		Text:   text,
		UserID: userID,
		BookID: bookID,
	}
	if err := s.reviews.CreateReview(ctx, review); err != nil {
		return nil, err
	}

	if s.refresher != nil {
		if err := s.refresher.RequestBookRefresh(ctx, bookID); err != nil {
			log.Printf("Failed to request stats refresh for book %d: %v", bookID, err)
		}
	}

	return review, nil
}

// SeedCatalog upserts the seed list by (title, author) without deleting.
func (s *Catalog) SeedCatalog(ctx context.Context, seed []entities.Book) (books.SeedResult, error) {
	result, err := s.books.SeedCatalog(ctx, seed)
	if err != nil {
		return result, fmt.Errorf("failed to seed catalog: %w", err)
	}
	return result, nil
}

// ReplaceCatalog swaps the whole catalog for seed while no review exists.
func (s *Catalog) ReplaceCatalog(ctx context.Context, seed []entities.Book) (books.SeedResult, error) {
	result, err := s.books.ReplaceCatalog(ctx, seed)
	if err != nil {
		return result, fmt.Errorf("failed to replace catalog: %w", err)
	}
	return result, nil
}

// DirectStatsRefresher refreshes summaries synchronously. It is used when the
// task queue is disabled.
type DirectStatsRefresher struct {
	Stats StatsStore
}

func (r DirectStatsRefresher) RequestBookRefresh(ctx context.Context, bookID uint) error {
	_, err := r.Stats.RefreshBook(ctx, bookID)
	return err
}

func (r DirectStatsRefresher) RequestFullRefresh(ctx context.Context) error {
	_, err := r.Stats.RefreshAll(ctx)
	return err
}
