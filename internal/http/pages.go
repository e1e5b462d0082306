package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookstore/internal/auth"
	"github.com/mrlokans/bookstore/internal/config"
	"github.com/mrlokans/bookstore/internal/database"
	"github.com/mrlokans/bookstore/internal/entities"
	"github.com/mrlokans/bookstore/internal/services"
)

// Messages shown to the visitor after a catalog action.
const (
	MsgLoginToReview  = "You must be logged in to add a review"
	MsgLoginToAccount = "You must be logged in to access your account"
	MsgReviewAdded    = "Review added successfully!"
	MsgUserNotFound   = "User not found. Please log in again."
	MsgBookNotFound   = "Book not found"
	MsgInvalidBookID  = "Invalid book ID"
)

// CatalogService is what the catalog pages need from the service layer.
type CatalogService interface {
	ListBooks(ctx context.Context, limit int) ([]entities.Book, error)
	GetBook(ctx context.Context, id uint) (*entities.Book, error)
	ListReviewsForBook(ctx context.Context, bookID uint) ([]entities.Review, error)
	ListReviewsForUser(ctx context.Context, userID uint) ([]entities.Review, error)
	GetBookStats(ctx context.Context, bookID uint) (*entities.BookStats, error)
	AddReview(ctx context.Context, userID, bookID uint, rating int, text string) (*entities.Review, error)
}

var _ CatalogService = (*services.Catalog)(nil)

// PagesController serves the catalog and account pages.
type PagesController struct {
	catalog   CatalogService
	sessions  *auth.SessionManager
	renderer  *PageRenderer
	homeLimit int
}

func NewPagesController(catalog CatalogService, sessions *auth.SessionManager, renderer *PageRenderer, homeLimit int) *PagesController {
	if homeLimit <= 0 {
		homeLimit = config.DefaultHomeBooksLimit
	}
	return &PagesController{
		catalog:   catalog,
		sessions:  sessions,
		renderer:  renderer,
		homeLimit: homeLimit,
	}
}

func (pc *PagesController) Home(c *gin.Context) {
	books, err := pc.catalog.ListBooks(c.Request.Context(), pc.homeLimit)
	if err != nil {
		pc.renderer.respondInternalError(c, err, "list home books")
		return
	}

	pc.renderer.Render(c, http.StatusOK, "index.html", gin.H{
		"Title": "Home",
		"Books": books,
	})
}

func (pc *PagesController) Books(c *gin.Context) {
	books, err := pc.catalog.ListBooks(c.Request.Context(), 0)
	if err != nil {
		pc.renderer.respondInternalError(c, err, "list books")
		return
	}

	pc.renderer.Render(c, http.StatusOK, "books.html", gin.H{
		"Title": "Books",
		"Books": books,
	})
}

func (pc *PagesController) Book(c *gin.Context) {
	id, ok := parseBookID(c)
	if !ok {
		pc.renderer.renderError(c, http.StatusBadRequest, MsgInvalidBookID)
		return
	}
	ctx := c.Request.Context()

	book, err := pc.catalog.GetBook(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			pc.renderer.renderError(c, http.StatusNotFound, MsgBookNotFound)
			return
		}
		pc.renderer.respondInternalError(c, err, "get book")
		return
	}

	reviews, err := pc.catalog.ListReviewsForBook(ctx, id)
	if err != nil {
		pc.renderer.respondInternalError(c, err, "list book reviews")
		return
	}

	stats, err := pc.catalog.GetBookStats(ctx, id)
	if err != nil {
		// The page is still useful without the summary.
		log.Printf("Failed to load stats for book %d: %v", id, err)
		stats = &entities.BookStats{BookID: id}
	}

	pc.renderer.Render(c, http.StatusOK, "book.html", gin.H{
		"Title":           book.Title,
		"Book":            book,
		"Reviews":         reviews,
		"Stats":           stats,
		"MaxReviewLength": services.MaxReviewLength,
		"LoginURL":        auth.LoginURL(bookPath(id)),
	})
}

func (pc *PagesController) PostReview(c *gin.Context) {
	id, ok := parseBookID(c)
	if !ok {
		pc.renderer.renderError(c, http.StatusBadRequest, MsgInvalidBookID)
		return
	}
	ctx := c.Request.Context()
	back := bookPath(id)

	user := auth.CurrentUser(c)
	if user == nil {
		pc.sessions.AddFlash(ctx, auth.FlashWarning, MsgLoginToReview)
		c.Redirect(http.StatusFound, auth.LoginURL(back))
		return
	}

	rating, err := strconv.Atoi(c.PostForm("rating"))
	if err != nil {
		pc.sessions.AddFlash(ctx, auth.FlashDanger, "Rating must be a number between 1 and 5")
		c.Redirect(http.StatusFound, back)
		return
	}

	_, err = pc.catalog.AddReview(ctx, user.ID, id, rating, c.PostForm("text"))
	if err != nil {
		var vErr *database.ValidationError
		switch {
		case errors.As(err, &vErr) && vErr.Field == "user_id":
			pc.sessions.ClearUser(ctx)
			pc.sessions.AddFlash(ctx, auth.FlashDanger, MsgUserNotFound)
			c.Redirect(http.StatusFound, auth.LoginURL(back))
		case errors.As(err, &vErr) && vErr.Field == "book_id":
			pc.renderer.renderError(c, http.StatusNotFound, MsgBookNotFound)
		case errors.As(err, &vErr):
			pc.sessions.AddFlash(ctx, auth.FlashDanger, reviewErrorMessage(vErr))
			c.Redirect(http.StatusFound, back)
		default:
			pc.renderer.respondInternalError(c, err, "add review")
		}
		return
	}

	pc.sessions.AddFlash(ctx, auth.FlashSuccess, MsgReviewAdded)
	c.Redirect(http.StatusFound, back)
}

func (pc *PagesController) Account(c *gin.Context) {
	user := auth.CurrentUser(c)
	if user == nil {
		c.Redirect(http.StatusFound, auth.LoginURL("/account"))
		return
	}

	reviews, err := pc.catalog.ListReviewsForUser(c.Request.Context(), user.ID)
	if err != nil {
		pc.renderer.respondInternalError(c, err, "list user reviews")
		return
	}

	pc.renderer.Render(c, http.StatusOK, "account.html", gin.H{
		"Title":   "Account",
		"Reviews": reviews,
	})
}

func (pc *PagesController) NotFound(c *gin.Context) {
	pc.renderer.renderError(c, http.StatusNotFound, "Page not found")
}

func bookPath(id uint) string {
	return fmt.Sprintf("/book/%d", id)
}

func reviewErrorMessage(vErr *database.ValidationError) string {
	switch vErr.Field {
	case "rating":
		return "Rating must be between 1 and 5"
	case "text":
		return "Review " + vErr.Message
	}
	return vErr.Error()
}
