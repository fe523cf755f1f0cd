package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/placement-api/internal/middleware"
	"github.com/noah-isme/placement-api/internal/models"
	appErrors "github.com/noah-isme/placement-api/pkg/errors"
	"github.com/noah-isme/placement-api/pkg/response"
)

// currentUser returns the caller's claims or writes 401 and returns nil.
func currentUser(c *gin.Context) *models.JWTClaims {
	if claims, ok := middleware.Claims(c); ok {
		return claims
	}
	response.Error(c, appErrors.ErrUnauthorized)
	return nil
}

func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	err := c.ShouldBindJSON(dest)
	if err != nil {
		response.Error(c, appErrors.WithCause(appErrors.ErrValidation, err, message))
	}
	return err == nil
}

// queryInt reads an optional integer; anything unparsable counts as unset.
func queryInt(c *gin.Context, key string) int {
	n, _ := strconv.Atoi(c.Query(key))
	return n
}
