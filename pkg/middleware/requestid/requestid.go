package requestid

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderKey  = "X-Request-ID"
	contextKey = "request_id"
	maxLength  = 64
)

// usable accepts short IDs made of URL-safe characters so a caller cannot
// smuggle control bytes into logs.
func usable(id string) bool {
	if id == "" || len(id) > maxLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		switch ch := id[i]; {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		case ch == '-' || ch == '_' || ch == '.':
		default:
			return false
		}
	}
	return true
}

// Middleware tags each request with an ID, reusing the caller's when usable,
// and echoes it in the response header.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderKey)
		if !usable(id) {
			id = uuid.NewString()
		}
		c.Set(contextKey, id)
		c.Header(HeaderKey, id)
		c.Next()
	}
}

func Value(c *gin.Context) string {
	return c.GetString(contextKey)
}
