package tasks

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookstore/internal/database"
	"github.com/mrlokans/bookstore/internal/database/stats"
	"github.com/mrlokans/bookstore/internal/entities"
)

type fakeRebuilder struct {
	mu       sync.Mutex
	books    []uint
	fullRuns int
	err      error
	done     chan struct{}
}

func newFakeRebuilder() *fakeRebuilder {
	return &fakeRebuilder{done: make(chan struct{}, 4)}
}

func (f *fakeRebuilder) RefreshBook(_ context.Context, bookID uint) (*entities.BookStats, error) {
	f.mu.Lock()
	f.books = append(f.books, bookID)
	f.mu.Unlock()
	f.done <- struct{}{}
	if f.err != nil {
		return nil, f.err
	}
	return &entities.BookStats{BookID: bookID}, nil
}

func (f *fakeRebuilder) RefreshAll(context.Context) (int, error) {
	f.mu.Lock()
	f.fullRuns++
	f.mu.Unlock()
	f.done <- struct{}{}
	return 3, f.err
}

func TestRefreshBookStatsTaskConfig(t *testing.T) {
	cfg := RefreshBookStatsTask{BookID: 1}.Config()

	assert.Equal(t, "refresh_book_stats", cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, time.Minute, cfg.Timeout)
	assert.NotNil(t, cfg.Retention)
}

func TestRefreshAllBookStatsTaskConfig(t *testing.T) {
	cfg := RefreshAllBookStatsTask{}.Config()

	assert.Equal(t, "refresh_all_book_stats", cfg.Name)
	assert.Equal(t, 1, cfg.MaxAttempts)
	assert.Equal(t, 30*time.Minute, cfg.Timeout)
}

func TestRefreshBookStatsProcessor(t *testing.T) {
	ctx := context.Background()

	t.Run("missing book is not retried", func(t *testing.T) {
		f := newFakeRebuilder()
		f.err = database.ErrNotFound
		assert.NoError(t, RefreshBookStatsProcessor(f)(ctx, RefreshBookStatsTask{BookID: 9}))
	})

	t.Run("other errors are returned", func(t *testing.T) {
		f := newFakeRebuilder()
		f.err = errors.New("disk full")
		assert.Error(t, RefreshBookStatsProcessor(f)(ctx, RefreshBookStatsTask{BookID: 9}))
	})
}

func TestRefreshAllBookStatsProcessor_Error(t *testing.T) {
	f := newFakeRebuilder()
	f.err = errors.New("locked")

	err := RefreshAllBookStatsProcessor(f)(context.Background(), RefreshAllBookStatsTask{})

	assert.ErrorContains(t, err, "stopped after 3 books")
}

func TestStatsEnqueuer_RunsQueuedRefreshes(t *testing.T) {
	client, _ := newTestClient(t)
	f := newFakeRebuilder()
	RegisterStatsQueues(client, f)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	enqueuer := NewStatsEnqueuer(client)
	require.NoError(t, enqueuer.RequestBookRefresh(ctx, 42))
	require.NoError(t, enqueuer.RequestFullRefresh(ctx))

	for i := 0; i < 2; i++ {
		select {
		case <-f.done:
		case <-time.After(5 * time.Second):
			t.Fatal("queued refresh was not executed within timeout")
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(t, []uint{42}, f.books)
	assert.Equal(t, 1, f.fullRuns)
}

func TestStatsEnqueuer_CanceledContext(t *testing.T) {
	client, _ := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, NewStatsEnqueuer(client).RequestBookRefresh(ctx, 1), context.Canceled)
}

func TestRefreshBookStatsProcessor_RealStore(t *testing.T) {
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	defer db.Close()

	book := entities.Book{Title: "Dune", Author: "Frank Herbert", Image: "dune.jpg", Rating: 4}
	require.NoError(t, db.DB.Create(&book).Error)
	user := entities.User{Username: "reader", Email: "reader@example.com", PasswordHash: "x"}
	require.NoError(t, db.DB.Create(&user).Error)
	require.NoError(t, db.DB.Omit("User", "Book").Create(&entities.Review{Rating: 2, Text: "ok", UserID: user.ID, BookID: book.ID}).Error)

	repo := stats.NewRepository(db.DB)
	require.NoError(t, RefreshBookStatsProcessor(repo)(context.Background(), RefreshBookStatsTask{BookID: book.ID}))

	summary, err := repo.GetBookStats(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.ReviewCount)
	assert.Equal(t, 2.0, summary.AverageRating)
}
