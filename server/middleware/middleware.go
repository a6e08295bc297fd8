package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Middleware is a net/http middleware; CORS and the body size limit are
// written against it and adapted with GinWrap.
type Middleware func(http.Handler) http.Handler

// GinWrap runs mw inside the Gin chain. The rest of the chain only runs if
// mw calls its next handler, and sees the request mw passed on; otherwise
// the context is aborted.
func GinWrap(mw Middleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		passed := false
		mw(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
			c.Next()
		})).ServeHTTP(c.Writer, c.Request)
		if !passed {
			c.Abort()
		}
	}
}
