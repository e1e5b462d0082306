// Package reviews provides database operations for book reviews.
//
// Reviews are append-only. Joins are explicit per query method: reviews of a
// book come with their author, reviews of a user come with their book.
package reviews

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/bookstore/internal/database"
	"github.com/mrlokans/bookstore/internal/entities"
)

// Repository handles all review database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new reviews repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateReview inserts review after confirming, in the same transaction, that
// its user and book exist. A missing reference yields a ValidationError naming
// user_id or book_id and nothing is written.
func (r *Repository) CreateReview(ctx context.Context, review *entities.Review) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &entities.User{}, review.UserID, "user_id", "user does not exist"); err != nil {
			return err
		}
		if err := requireRow(tx, &entities.Book{}, review.BookID, "book_id", "book does not exist"); err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Create(review).Error; err != nil {
			if database.IsForeignKeyViolation(err) {
				return database.NewValidationError("book_id", "referenced row does not exist")
			}
			return fmt.Errorf("failed to create review: %w", err)
		}
		return nil
	})
}

func requireRow(tx *gorm.DB, model interface{}, id uint, field, message string) error {
	if id == 0 {
		return database.NewValidationError(field, message)
	}
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return database.NewValidationError(field, message)
	}
	return nil
}

// ListForBook returns a book's reviews in insertion order with User loaded.
func (r *Repository) ListForBook(ctx context.Context, bookID uint) ([]entities.Review, error) {
	var reviews []entities.Review
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("book_id = ?", bookID).
		Order("id ASC").
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

// ListForUser returns a user's reviews in insertion order with Book loaded.
func (r *Repository) ListForUser(ctx context.Context, userID uint) ([]entities.Review, error) {
	var reviews []entities.Review
	err := r.db.WithContext(ctx).
		Preload("Book").
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

// CountForBook returns how many reviews a book has.
func (r *Repository) CountForBook(ctx context.Context, bookID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Review{}).Where("book_id = ?", bookID).Count(&count).Error
	return count, err
}

// Count returns the total number of reviews.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Review{}).Count(&count).Error
	return count, err
}
