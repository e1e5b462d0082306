// Package catalog holds the books the store is seeded with.
//
// The built-in list is returned by DefaultBooks. A deployment can replace it
// with a JSON file (CATALOG_PATH) read by LoadFile:
//
//	[
//	  {"title": "Dune", "author": "Frank Herbert", "summary": "...",
//	   "price": 14.50, "image": "dune.jpg", "rating": 4}
//	]
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mrlokans/bookstore/internal/database/books"
	"github.com/mrlokans/bookstore/internal/entities"
)

// Entry is one book in a catalog file.
type Entry struct {
	Title   string  `json:"title"`
	Author  string  `json:"author"`
	Summary string  `json:"summary"`
	Price   float64 `json:"price"`
	Image   string  `json:"image"`
	Rating  int     `json:"rating"`
}

// DefaultBooks returns the built-in catalog in display order.
func DefaultBooks() []entities.Book {
	return []entities.Book{
		{Title: "The Hobbit", Author: "J.R.R. Tolkien", Summary: "A fantasy adventure with Bilbo Baggins.", Price: 12.99, Image: "hobbit.jpg", Rating: 5},
		{Title: "1984", Author: "George Orwell", Summary: "A dystopian novel about surveillance and control.", Price: 9.99, Image: "1984.jpg", Rating: 5},
		{Title: "Dune", Author: "Frank Herbert", Summary: "Epic sci-fi saga set on desert planet Arrakis.", Price: 14.50, Image: "dune.jpg", Rating: 4},
		{Title: "Pride and Prejudice", Author: "Jane Austen", Summary: "A timeless romance and social commentary masterpiece.", Price: 10.99, Image: "pride.jpg", Rating: 4},
		{Title: "The Great Gatsby", Author: "F. Scott Fitzgerald", Summary: "A story of wealth, love, and the American dream.", Price: 11.50, Image: "gatsby.jpg", Rating: 4},
		{Title: "To Kill a Mockingbird", Author: "Harper Lee", Summary: "A novel about justice and race in the Deep South.", Price: 12.00, Image: "mockingbird.jpg", Rating: 5},
		{Title: "Harry Potter and the Philosopher's Stone", Author: "J.K. Rowling", Summary: "The magical beginning of Harry Potter’s journey.", Price: 8.99, Image: "hp1.jpg", Rating: 5},
		{Title: "Harry Potter and the Chamber of Secrets", Author: "J.K. Rowling", Summary: "The chamber is opened again.", Price: 9.50, Image: "hp2.jpg", Rating: 4},
		{Title: "Harry Potter and the Prisoner of Azkaban", Author: "J.K. Rowling", Summary: "Sirius Black escapes Azkaban.", Price: 10.25, Image: "hp3.jpg", Rating: 5},
		{Title: "Harry Potter and the Goblet of Fire", Author: "J.K. Rowling", Summary: "The Triwizard Tournament begins.", Price: 11.00, Image: "hp4.jpg", Rating: 5},
		{Title: "The Catcher in the Rye", Author: "J.D. Salinger", Summary: "Holden Caulfield’s story of teenage angst.", Price: 9.75, Image: "catcher.jpg", Rating: 3},
		{Title: "The Lord of the Rings: Fellowship of the Ring", Author: "J.R.R. Tolkien", Summary: "The quest to destroy the One Ring begins.", Price: 13.99, Image: "lotr1.jpg", Rating: 5},
		{Title: "The Lord of the Rings: Two Towers", Author: "J.R.R. Tolkien", Summary: "The fellowship is broken, battles rage.", Price: 14.50, Image: "lotr2.jpg", Rating: 5},
		{Title: "The Lord of the Rings: Return of the King", Author: "J.R.R. Tolkien", Summary: "The final battle for Middle-earth.", Price: 15.00, Image: "lotr3.jpg", Rating: 5},
		{Title: "The Name of the Wind", Author: "Patrick Rothfuss", Summary: "An epic fantasy tale of magic and adventure.", Price: 17.95, Image: "namewind.jpg", Rating: 5},
		{Title: "The Silent Patient", Author: "Alex Michaelides", Summary: "A shocking psychological thriller with a twist.", Price: 13.95, Image: "silent.jpg", Rating: 4},
		{Title: "Project Hail Mary", Author: "Andy Weir", Summary: "A thrilling space adventure with heart and humor.", Price: 18.95, Image: "hailmary.jpg", Rating: 5},
		{Title: "The Seven Husbands of Evelyn Hugo", Author: "Taylor Jenkins Reid", Summary: "A captivating story of Hollywood’s golden age.", Price: 15.95, Image: "sevenhusbands.jpg", Rating: 4},
		{Title: "The Midnight Library", Author: "Matt Haig", Summary: "A touching novel about choices and regrets.", Price: 14.95, Image: "midnight.jpg", Rating: 4},
		{Title: "Brave New World", Author: "Aldous Huxley", Summary: "A dystopian vision of a controlled society.", Price: 12.50, Image: "bravenew.jpg", Rating: 4},
	}
}

// LoadFile reads and validates a JSON catalog. Entries without a rating get
// entities.DefaultRating.
func LoadFile(path string) ([]entities.Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a JSON catalog.
func Parse(data []byte) ([]entities.Book, error) {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}

	result := make([]entities.Book, 0, len(entries))
	for i, e := range entries {
		book := entities.Book{
			Title:   e.Title,
			Author:  e.Author,
			Summary: e.Summary,
			Price:   e.Price,
			Image:   e.Image,
			Rating:  e.Rating,
		}
		if book.Rating == 0 {
			book.Rating = entities.DefaultRating
		}
		if err := books.ValidateBook(book); err != nil {
			return nil, fmt.Errorf("catalog entry %d (%q): %w", i, e.Title, err)
		}
		result = append(result, book)
	}
	return result, nil
}

// Load returns the catalog at path, or DefaultBooks when path is empty.
func Load(path string) ([]entities.Book, error) {
	if path == "" {
		return DefaultBooks(), nil
	}
	return LoadFile(path)
}
