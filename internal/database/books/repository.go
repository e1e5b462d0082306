// Package books provides database operations for the catalog.
//
// Books are written only by seeding. Seeding matches entries by
// (title, author) and never deletes, so reviews always keep their book.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	result, err := repo.SeedCatalog(ctx, catalog.DefaultBooks())
package books

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/bookstore/internal/database"
	"github.com/mrlokans/bookstore/internal/entities"
)

// ErrCatalogInUse is returned by ReplaceCatalog while any review exists.
var ErrCatalogInUse = errors.New("catalog has reviews and cannot be replaced")

// SeedResult counts what a seeding run did.
type SeedResult struct {
	Created   int
	Updated   int
	Unchanged int
}

func (r SeedResult) String() string {
	return fmt.Sprintf("%d created, %d updated, %d unchanged", r.Created, r.Updated, r.Unchanged)
}

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListBooks returns books in insertion order. A limit of zero or less returns
// every book.
func (r *Repository) ListBooks(ctx context.Context, limit int) ([]entities.Book, error) {
	var books []entities.Book
	query := r.db.WithContext(ctx).Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

// GetBookByID retrieves a book by ID.
func (r *Repository) GetBookByID(ctx context.Context, id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.WithContext(ctx).First(&book, id).Error
	if err != nil {
		return nil, database.NotFound(err)
	}
	return &book, nil
}

// GetBookByTitleAndAuthor retrieves a book by its natural key.
func (r *Repository) GetBookByTitleAndAuthor(ctx context.Context, title, author string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.WithContext(ctx).Where("title = ? AND author = ?", title, author).First(&book).Error
	if err != nil {
		return nil, database.NotFound(err)
	}
	return &book, nil
}

// Count returns the number of books in the catalog.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Book{}).Count(&count).Error
	return count, err
}

// SeedCatalog upserts seed by (title, author) in one transaction. Existing
// books get the seed's summary, price, image and rating; books missing from
// seed are left alone.
func (r *Repository) SeedCatalog(ctx context.Context, seed []entities.Book) (SeedResult, error) {
	var result SeedResult

	prepared, err := prepareSeed(seed)
	if err != nil {
		return result, err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range prepared {
			entry := prepared[i]

			var existing entities.Book
			err := tx.Where("title = ? AND author = ?", entry.Title, entry.Author).First(&existing).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if err := tx.Create(&entry).Error; err != nil {
					return fmt.Errorf("failed to create book %q: %w", entry.Title, err)
				}
				result.Created++
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to look up book %q: %w", entry.Title, err)
			}

			if sameContent(existing, entry) {
				result.Unchanged++
				continue
			}

			err = tx.Model(&existing).Updates(map[string]interface{}{
				"summary": entry.Summary,
				"price":   entry.Price,
				"image":   entry.Image,
				"rating":  entry.Rating,
			}).Error
			if err != nil {
				return fmt.Errorf("failed to update book %q: %w", entry.Title, err)
			}
			result.Updated++
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}

	return result, nil
}

// ReplaceCatalog deletes every book and inserts seed. It refuses with
// ErrCatalogInUse once any review exists.
func (r *Repository) ReplaceCatalog(ctx context.Context, seed []entities.Book) (SeedResult, error) {
	prepared, err := prepareSeed(seed)
	if err != nil {
		return SeedResult{}, err
	}

	var result SeedResult
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reviewCount int64
		if err := tx.Model(&entities.Review{}).Count(&reviewCount).Error; err != nil {
			return err
		}
		if reviewCount > 0 {
			return ErrCatalogInUse
		}

		if err := tx.Where("1 = 1").Delete(&entities.BookStats{}).Error; err != nil {
			return fmt.Errorf("failed to clear book stats: %w", err)
		}
		if err := tx.Where("1 = 1").Delete(&entities.Book{}).Error; err != nil {
			return fmt.Errorf("failed to clear books: %w", err)
		}
		if len(prepared) == 0 {
			return nil
		}
		if err := tx.Create(&prepared).Error; err != nil {
			return fmt.Errorf("failed to insert catalog: %w", err)
		}
		result.Created = len(prepared)
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}
	return result, nil
}

// prepareSeed validates seed entries and fills the default rating. Duplicate
// (title, author) pairs keep the last entry.
func prepareSeed(seed []entities.Book) ([]entities.Book, error) {
	index := make(map[[2]string]int, len(seed))
	prepared := make([]entities.Book, 0, len(seed))

	for i, b := range seed {
		entry := entities.Book{
			Title:   strings.TrimSpace(b.Title),
			Author:  strings.TrimSpace(b.Author),
			Summary: strings.TrimSpace(b.Summary),
			Price:   b.Price,
			Image:   strings.TrimSpace(b.Image),
			Rating:  b.Rating,
		}
		if entry.Rating == 0 {
			entry.Rating = entities.DefaultRating
		}
		if err := ValidateBook(entry); err != nil {
			return nil, fmt.Errorf("seed entry %d: %w", i, err)
		}

		key := [2]string{entry.Title, entry.Author}
		if pos, ok := index[key]; ok {
			prepared[pos] = entry
			continue
		}
		index[key] = len(prepared)
		prepared = append(prepared, entry)
	}

	return prepared, nil
}

// ValidateBook checks the fields a catalog entry must carry. A zero rating is
// rejected here; callers substitute entities.DefaultRating first.
func ValidateBook(b entities.Book) error {
	switch {
	case b.Title == "":
		return database.NewValidationError("title", "is required")
	case b.Author == "":
		return database.NewValidationError("author", "is required")
	case b.Image == "":
		return database.NewValidationError("image", "is required")
	case b.Price < 0:
		return database.NewValidationError("price", "must not be negative")
	case !entities.ValidRating(b.Rating):
		return database.NewValidationError("rating", "must be between 1 and 5")
	}
	return nil
}

func sameContent(a, b entities.Book) bool {
	return a.Summary == b.Summary &&
		a.Price == b.Price &&
		a.Image == b.Image &&
		a.Rating == b.Rating
}
