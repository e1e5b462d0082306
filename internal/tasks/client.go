package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
)

// Client owns the background queue used for reader-score refreshes. Queued
// tasks live in their own SQLite file so workers never contend with page
// requests for the main database lock.
type Client struct {
	queue   *backlite.Client
	store   *sql.DB
	workers int

	mu      sync.Mutex
	running bool
}

// TasksDBPath returns the queue database path for a main database path:
// "./bookstore.db" becomes "./bookstore-tasks.db".
func TasksDBPath(mainDBPath string) string {
	dir, file := filepath.Split(mainDBPath)
	ext := filepath.Ext(file)
	return filepath.Join(dir, strings.TrimSuffix(file, ext)+"-tasks"+ext)
}

func openTaskStore(path string, workers int) (*sql.DB, error) {
	store, err := sql.Open("sqlite3", path+"?_journal=WAL&_timeout=5000&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	store.SetMaxOpenConns(workers + 5)
	store.SetMaxIdleConns(workers + 2)
	store.SetConnMaxLifetime(time.Hour)
	return store, nil
}

// NewClient opens the queue database next to mainDBPath and installs the
// backlite schema.
func NewClient(mainDBPath string, cfg Config) (*Client, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}

	store, err := openTaskStore(TasksDBPath(mainDBPath), cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to open tasks database: %w", err)
	}

	queue, err := backlite.NewClient(backlite.ClientConfig{
		DB:              store,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          queueLogger{},
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create task queue: %w", err)
	}
	if err := queue.Install(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to install task queue schema: %w", err)
	}

	return &Client{queue: queue, store: store, workers: cfg.Workers}, nil
}

// Register adds queues to the client. Call it before Start.
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.queue.Register(q)
	}
}

// Start launches the workers. Workers run until ctx is canceled or Stop is
// called; a second Start is ignored.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.mu.Unlock()

	log.Printf("Task queue started with %d workers", c.workers)
	c.queue.Start(ctx)
}

// Stop waits for in-flight tasks until ctx expires. It reports whether every
// worker finished in time.
func (c *Client) Stop(ctx context.Context) bool {
	c.mu.Lock()
	running := c.running
	c.running = false
	c.mu.Unlock()
	if !running {
		return true
	}

	if !c.queue.Stop(ctx) {
		log.Println("Task queue stopped before all tasks finished")
		return false
	}
	log.Println("Task queue stopped")
	return true
}

// Close releases the queue database. Call it after Stop.
func (c *Client) Close() error {
	if c.store == nil {
		return nil
	}
	return c.store.Close()
}

// Add begins enqueueing tasks; finish with Save or Tx.
func (c *Client) Add(tasks ...backlite.Task) *backlite.TaskAddOp {
	return c.queue.Add(tasks...)
}

// Status looks up a queued task.
func (c *Client) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return c.queue.Status(ctx, taskID)
}

type queueLogger struct{}

func (queueLogger) Info(message string, params ...any) {
	log.Printf("[TASK] "+message, params...)
}

func (queueLogger) Error(message string, params ...any) {
	log.Printf("[TASK ERROR] "+message, params...)
}
