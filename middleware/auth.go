package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AuthRequired redirects anonymous requests to the login page. It must run
// after SessionLoader.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserFrom(c).IsAnonymous() {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}
