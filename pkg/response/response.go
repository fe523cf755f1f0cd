package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/placement-api/internal/models"
	appErrors "github.com/noah-isme/placement-api/pkg/errors"
)

// Envelope wraps every JSON body the API returns. Exactly one of Data and
// Error is set.
type Envelope struct {
	Data       interface{}            `json:"data,omitempty"`
	Error      *appErrors.Error       `json:"error,omitempty"`
	Pagination *models.Pagination     `json:"pagination,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

var noStoreHeaders = [][2]string{
	{"Cache-Control", "no-store"},
	{"Pragma", "no-cache"},
}

func uncached(c *gin.Context) {
	for _, h := range noStoreHeaders {
		c.Header(h[0], h[1])
	}
}

// JSON writes data with optional pagination and a single optional meta map.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination, meta ...map[string]interface{}) {
	body := Envelope{Data: data, Pagination: pagination}
	if len(meta) > 0 {
		body.Meta = meta[0]
	}
	uncached(c)
	c.JSON(status, body)
}

func OK(c *gin.Context, data interface{}) { JSON(c, http.StatusOK, data, nil) }

func Created(c *gin.Context, data interface{}) { JSON(c, http.StatusCreated, data, nil) }

func NoContent(c *gin.Context) { c.Status(http.StatusNoContent) }

// Error aborts the chain with the status carried by err; untyped errors become 500.
func Error(c *gin.Context, err error) {
	typed := appErrors.FromError(err)
	_ = c.Error(err)
	uncached(c)
	c.AbortWithStatusJSON(typed.Status, Envelope{Error: typed})
}

// File sends body as a download named filename.
func File(c *gin.Context, filename, contentType string, body []byte) {
	uncached(c)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, body)
}
