package middleware

import (
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/placement-api/internal/models"
	appErrors "github.com/noah-isme/placement-api/pkg/errors"
	"github.com/noah-isme/placement-api/pkg/logger"
	"github.com/noah-isme/placement-api/pkg/response"
)

// ContextUserKey holds the caller's *models.JWTClaims once JWT has run.
const ContextUserKey = "currentUser"

// TokenValidator turns a bearer token into claims.
type TokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

var errMalformedHeader = appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header")

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// JWT rejects requests without a valid bearer token and stores the claims
// under ContextUserKey.
func JWT(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		token, ok := bearerToken(header)
		if !ok {
			response.Error(c, errMalformedHeader)
			return
		}
		claims, err := tokens.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			return
		}

		c.Set(ContextUserKey, claims)
		c.Set(logger.ContextActorKey, string(claims.Role)+":"+claims.UserID)
		c.Next()
	}
}

// Claims returns what JWT stored for the request.
func Claims(c *gin.Context) (*models.JWTClaims, bool) {
	claims, ok := c.Value(ContextUserKey).(*models.JWTClaims)
	return claims, ok && claims != nil
}

// RequireRoles must run after JWT.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		switch {
		case !ok:
			response.Error(c, appErrors.ErrUnauthorized)
		case !slices.Contains(roles, claims.Role):
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "role "+string(claims.Role)+" may not access this resource"))
		default:
			c.Next()
		}
	}
}
