package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mrlokans/bookstore/internal/catalog"
	"github.com/mrlokans/bookstore/internal/config"
	"github.com/mrlokans/bookstore/internal/database"
	"github.com/mrlokans/bookstore/internal/database/books"
)

// SeedCommand loads the catalog into the database.
type SeedCommand struct {
	DatabasePath string
	CatalogPath  string
	Replace      bool

	Out io.Writer
}

// NewSeedCommand creates a new SeedCommand
func NewSeedCommand() *SeedCommand {
	return &SeedCommand{Out: os.Stdout}
}

// ParseFlags parses command line flags
func (cmd *SeedCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.StringVar(&cmd.CatalogPath, "file", "", "JSON catalog to load (built-in list if not specified)")
	fs.BoolVar(&cmd.Replace, "replace", false, "Replace the whole catalog (refused once reviews exist)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s seed [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Insert or update catalog books, matched by title and author.\n")
		fmt.Fprintf(os.Stderr, "Books missing from the source are kept unless -replace is given.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s seed\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s seed -file catalog.json -db ./data/bookstore.db\n", os.Args[0])
	}

	return fs.Parse(args)
}

// Run executes the seed command
func (cmd *SeedCommand) Run() error {
	entries, err := catalog.Load(cmd.CatalogPath)
	if err != nil {
		return err
	}

	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}

	db, err := database.NewDatabase(absDBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	source := "built-in catalog"
	if cmd.CatalogPath != "" {
		source = cmd.CatalogPath
	}
	fmt.Fprintf(cmd.Out, "Seeding %d books from %s into %s\n", len(entries), source, absDBPath)

	repo := books.NewRepository(db.DB)
	ctx := context.Background()

	var result books.SeedResult
	if cmd.Replace {
		result, err = repo.ReplaceCatalog(ctx, entries)
	} else {
		result, err = repo.SeedCatalog(ctx, entries)
	}
	if err != nil {
		return err
	}

	total, err := repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count books: %w", err)
	}
	fmt.Fprintf(cmd.Out, "Done: %s (%d books in catalog)\n", result, total)
	return nil
}
