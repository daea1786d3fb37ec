package httpserver

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// requestID tags every request with an id, reusing the caller's when given,
// and logs server-side failures under it.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)

		c.Next()

		if status := c.Writer.Status(); status >= http.StatusInternalServerError {
			log.Printf("httpserver: %s %s returned %d (request %s)", c.Request.Method, c.Request.URL.Path, status, id)
		}
	}
}
