package config

const (
	// DefaultDatabasePath is the default path for the application database
	DefaultDatabasePath = "./bookstore.db"

	// DefaultHomeBooksLimit is how many books the home page shows
	DefaultHomeBooksLimit = 6
)
