package http

import (
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"github.com/mrlokans/bookstore/internal/auth"
	"github.com/mrlokans/bookstore/internal/entities"
)

// layoutFiles are parsed into every page.
var layoutFiles = []string{"layout.html", "book_card.html"}

var funcMap = template.FuncMap{
	"stars": stars,
	"price": func(p float64) string {
		return fmt.Sprintf("$%.2f", p)
	},
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("Jan 2, 2006")
	},
	"year": func() int {
		return time.Now().Year()
	},
	"ratings": func() []int {
		return []int{1, 2, 3, 4, 5}
	},
}

// stars draws a rating as filled and empty stars.
func stars(rating int) string {
	if rating < 0 {
		rating = 0
	}
	if rating > entities.MaxRating {
		rating = entities.MaxRating
	}
	return strings.Repeat("★", rating) + strings.Repeat("☆", entities.MaxRating-rating)
}

// PageRenderer renders full pages: the shared layout plus one content
// template. It implements gin's render.HTMLRender so handlers can use c.HTML.
type PageRenderer struct {
	pages    map[string]*template.Template
	sessions *auth.SessionManager
}

// NewPageRenderer parses every page in files against the layout.
// sessions may be nil, in which case pages carry no flash messages.
func NewPageRenderer(files fs.FS, sessions *auth.SessionManager) (*PageRenderer, error) {
	base, err := template.New("").Funcs(funcMap).ParseFS(files, layoutFiles...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	names, err := fs.Glob(files, "*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template)
	for _, name := range names {
		if isLayoutFile(name) {
			continue
		}
		page, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := page.ParseFS(files, name); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		pages[path.Base(name)] = page
	}

	return &PageRenderer{pages: pages, sessions: sessions}, nil
}

func isLayoutFile(name string) bool {
	for _, l := range layoutFiles {
		if name == l {
			return true
		}
	}
	return false
}

// Instance implements render.HTMLRender.
func (r *PageRenderer) Instance(name string, data any) render.Render {
	tmpl, ok := r.pages[name]
	if !ok {
		// Render checks names first; reaching this is a bug.
		panic(fmt.Sprintf("page template %q not found", name))
	}
	return render.HTML{Template: tmpl, Name: "layout", Data: data}
}

// Render adds the data every page needs (current user, pending flash and the
// CSRF field) and writes the page.
func (r *PageRenderer) Render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if user := auth.CurrentUser(c); user != nil {
		data["CurrentUser"] = user
	}
	if r.sessions != nil {
		if flash := r.sessions.PopFlash(c.Request.Context()); flash != nil {
			data["Flash"] = flash
		}
	}
	data["CSRFField"] = auth.CSRFTokenField(c)

	if _, ok := r.pages[name]; !ok {
		log.Printf("Unknown page template %q", name)
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}
	c.HTML(status, name, data)
}
