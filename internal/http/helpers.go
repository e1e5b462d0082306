package http

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// parseBookID reads the :id path parameter.
func parseBookID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// renderError renders the error page with status and a visitor-facing message.
func (r *PageRenderer) renderError(c *gin.Context, status int, message string) {
	r.Render(c, status, "error.html", gin.H{
		"Title":   http.StatusText(status),
		"Status":  status,
		"Message": message,
	})
}

// respondInternalError logs err and renders the generic 500 page.
// The actual error is not exposed to the visitor.
func (r *PageRenderer) respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	r.renderError(c, http.StatusInternalServerError, "Something went wrong. Please try again later.")
}
