package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookstore/internal/database"
	"github.com/mrlokans/bookstore/internal/entities"
)

// StatsRebuilder recomputes reader-score summaries.
type StatsRebuilder interface {
	RefreshBook(ctx context.Context, bookID uint) (*entities.BookStats, error)
	RefreshAll(ctx context.Context) (int, error)
}

// RefreshBookStatsTask rebuilds the summary of a single book.
type RefreshBookStatsTask struct {
	BookID uint `json:"book_id"`
}

// Config returns the queue configuration for book stats refresh tasks.
func (t RefreshBookStatsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "refresh_book_stats",
		MaxAttempts: 3,
		Backoff:     10 * time.Second,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data: &backlite.RetainData{
				OnlyFailed: true,
			},
		},
	}
}

// RefreshBookStatsProcessor creates the processor for book stats refresh tasks.
func RefreshBookStatsProcessor(stats StatsRebuilder) backlite.QueueProcessor[RefreshBookStatsTask] {
	return func(ctx context.Context, task RefreshBookStatsTask) error {
		summary, err := stats.RefreshBook(ctx, task.BookID)
		if err != nil {
			// The book is gone; retrying cannot help.
			if errors.Is(err, database.ErrNotFound) {
				log.Printf("Skipping stats refresh for missing book %d", task.BookID)
				return nil
			}
			return fmt.Errorf("failed to refresh stats for book %d: %w", task.BookID, err)
		}
		log.Printf("Refreshed stats for book %d: %d reviews, average %.1f",
			task.BookID, summary.ReviewCount, summary.AverageRating)
		return nil
	}
}

// NewRefreshBookStatsQueue creates a queue for book stats refresh tasks.
func NewRefreshBookStatsQueue(stats StatsRebuilder) backlite.Queue {
	return backlite.NewQueue(RefreshBookStatsProcessor(stats))
}

// RefreshAllBookStatsTask rebuilds the summary of every book.
type RefreshAllBookStatsTask struct{}

// Config returns the queue configuration for full stats rebuild tasks.
func (t RefreshAllBookStatsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "refresh_all_book_stats",
		MaxAttempts: 1,
		Timeout:     30 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   7 * 24 * time.Hour,
			OnlyFailed: false,
		},
	}
}

// RefreshAllBookStatsProcessor creates the processor for full stats rebuild tasks.
func RefreshAllBookStatsProcessor(stats StatsRebuilder) backlite.QueueProcessor[RefreshAllBookStatsTask] {
	return func(ctx context.Context, _ RefreshAllBookStatsTask) error {
		start := time.Now()
		refreshed, err := stats.RefreshAll(ctx)
		if err != nil {
			return fmt.Errorf("stats rebuild stopped after %d books: %w", refreshed, err)
		}
		log.Printf("Rebuilt stats for %d books in %s", refreshed, time.Since(start).Round(time.Millisecond))
		return nil
	}
}

// NewRefreshAllBookStatsQueue creates a queue for full stats rebuild tasks.
func NewRefreshAllBookStatsQueue(stats StatsRebuilder) backlite.Queue {
	return backlite.NewQueue(RefreshAllBookStatsProcessor(stats))
}

// RegisterStatsQueues registers both stats queues with the client.
func RegisterStatsQueues(c *Client, stats StatsRebuilder) {
	c.Register(
		NewRefreshBookStatsQueue(stats),
		NewRefreshAllBookStatsQueue(stats),
	)
}

// StatsEnqueuer turns refresh requests into queued tasks.
type StatsEnqueuer struct {
	client *Client
}

// NewStatsEnqueuer creates an enqueuer backed by client.
func NewStatsEnqueuer(client *Client) *StatsEnqueuer {
	return &StatsEnqueuer{client: client}
}

// RequestBookRefresh queues a refresh of one book's summary.
func (e *StatsEnqueuer) RequestBookRefresh(ctx context.Context, bookID uint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := e.client.Add(RefreshBookStatsTask{BookID: bookID}).Save(); err != nil {
		return fmt.Errorf("failed to enqueue stats refresh for book %d: %w", bookID, err)
	}
	return nil
}

// RequestFullRefresh queues a rebuild of every summary.
func (e *StatsEnqueuer) RequestFullRefresh(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := e.client.Add(RefreshAllBookStatsTask{}).Save(); err != nil {
		return fmt.Errorf("failed to enqueue stats rebuild: %w", err)
	}
	return nil
}
