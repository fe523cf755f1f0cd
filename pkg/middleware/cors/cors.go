package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

var staticHeaders = map[string]string{
	"Vary":                          "Origin",
	"Access-Control-Allow-Headers":  "Authorization, Content-Type, X-Requested-With, X-Request-ID",
	"Access-Control-Allow-Methods":  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	"Access-Control-Expose-Headers": "Content-Disposition, X-Request-ID",
	"Access-Control-Max-Age":        "600",
}

func normalize(origin string) string { return strings.TrimRight(origin, "/") }

// New allows the listed origins with credentials; an empty list allows any
// origin. Preflight requests end here with 204.
func New(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[normalize(o)] = true
	}
	open := len(allowed) == 0

	return func(c *gin.Context) {
		h := c.Writer.Header()
		if origin := c.GetHeader("Origin"); origin == "" {
			if open {
				h.Set("Access-Control-Allow-Origin", "*")
			}
		} else if open || allowed[normalize(origin)] {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
		}
		for k, v := range staticHeaders {
			h.Set(k, v)
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
