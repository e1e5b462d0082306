package entities

import "time"

const (
	MinRating     = 1
	MaxRating     = 5
	DefaultRating = 3
)

// User is a registered reader. Username is a display name and is not unique;
// Email identifies the account.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:50;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;size:120;not null" json:"email"`
	PasswordHash string    `gorm:"column:password;size:200;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Book is a catalog item. Rating is the editorial score, not derived from reviews.
type Book struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:150;not null;uniqueIndex:idx_books_title_author" json:"title"`
	Author    string    `gorm:"size:100;not null;uniqueIndex:idx_books_title_author" json:"author"`
	Summary   string    `gorm:"type:text" json:"summary,omitempty"`
	Price     float64   `gorm:"not null" json:"price"`
	Image     string    `gorm:"size:100;not null" json:"image"`
	Rating    int       `gorm:"not null;default:3" json:"rating"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Review is a user's rating and opinion of a book.
// User and Book are only populated by the query methods that join them.
type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Rating    int       `gorm:"not null" json:"rating"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	BookID    uint      `gorm:"index;not null" json:"book_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"-"`
	Book      Book      `gorm:"foreignKey:BookID;constraint:OnDelete:RESTRICT" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// BookStats is the reader score of a book, recomputed from its reviews.
type BookStats struct {
	BookID        uint      `gorm:"primaryKey;autoIncrement:false" json:"book_id"`
	Book          Book      `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"-"`
	ReviewCount   int64     `json:"review_count"`
	AverageRating float64   `json:"average_rating"`
	OneStar       int64     `json:"one_star"`
	TwoStars      int64     `json:"two_stars"`
	ThreeStars    int64     `json:"three_stars"`
	FourStars     int64     `json:"four_stars"`
	FiveStars     int64     `json:"five_stars"`
	RefreshedAt   time.Time `json:"refreshed_at"`
}

func (User) TableName() string {
	return "users"
}

func (Book) TableName() string {
	return "books"
}

func (Review) TableName() string {
	return "reviews"
}

func (BookStats) TableName() string {
	return "book_stats"
}

// ValidRating reports whether r is a displayable star rating.
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}
