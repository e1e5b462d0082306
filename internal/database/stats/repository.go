// Package stats maintains the reader-score summary of each book.
//
// A summary is derived only from reviews and is rebuilt on demand, either
// after a review is posted or by the scheduled full rebuild. It never touches
// the editorial books.rating column.
package stats

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/bookstore/internal/database"
	"github.com/mrlokans/bookstore/internal/entities"
)

// Repository handles book_stats database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new stats repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type ratingCount struct {
	Rating int
	Total  int64
}

// RefreshBook recomputes and stores the summary of one book.
func (r *Repository) RefreshBook(ctx context.Context, bookID uint) (*entities.BookStats, error) {
	var result *entities.BookStats
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&entities.Book{}).Where("id = ?", bookID).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return database.ErrNotFound
		}

		stats, err := compute(tx, bookID)
		if err != nil {
			return err
		}
		if err := upsert(tx, stats); err != nil {
			return err
		}
		result = stats
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RefreshAll recomputes the summary of every book and returns how many were
// refreshed.
func (r *Repository) RefreshAll(ctx context.Context) (int, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&entities.Book{}).Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return 0, fmt.Errorf("failed to list books: %w", err)
	}

	refreshed := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return refreshed, err
		}
		if _, err := r.RefreshBook(ctx, id); err != nil {
			return refreshed, fmt.Errorf("failed to refresh book %d: %w", id, err)
		}
		refreshed++
	}
	return refreshed, nil
}

// GetBookStats returns the stored summary. A book that was never refreshed
// gets an empty summary rather than an error.
func (r *Repository) GetBookStats(ctx context.Context, bookID uint) (*entities.BookStats, error) {
	var stats entities.BookStats
	err := r.db.WithContext(ctx).Where("book_id = ?", bookID).Take(&stats).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &entities.BookStats{BookID: bookID}, nil
		}
		return nil, err
	}
	return &stats, nil
}

func compute(tx *gorm.DB, bookID uint) (*entities.BookStats, error) {
	var rows []ratingCount
	err := tx.Model(&entities.Review{}).
		Select("rating, COUNT(*) AS total").
		Where("book_id = ?", bookID).
		Group("rating").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate reviews: %w", err)
	}

	stats := &entities.BookStats{BookID: bookID, RefreshedAt: time.Now().UTC()}
	var sum int64
	for _, row := range rows {
		stats.ReviewCount += row.Total
		sum += int64(row.Rating) * row.Total
		switch row.Rating {
		case 1:
			stats.OneStar = row.Total
		case 2:
			stats.TwoStars = row.Total
		case 3:
			stats.ThreeStars = row.Total
		case 4:
			stats.FourStars = row.Total
		case 5:
			stats.FiveStars = row.Total
		}
	}
	if stats.ReviewCount > 0 {
		avg := float64(sum) / float64(stats.ReviewCount)
		stats.AverageRating = math.Round(avg*10) / 10
	}
	return stats, nil
}

func upsert(tx *gorm.DB, stats *entities.BookStats) error {
	err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "book_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"review_count", "average_rating",
			"one_star", "two_stars", "three_stars", "four_stars", "five_stars",
			"refreshed_at",
		}),
	}).Create(stats).Error
	if err != nil {
		return fmt.Errorf("failed to store book stats: %w", err)
	}
	return nil
}
