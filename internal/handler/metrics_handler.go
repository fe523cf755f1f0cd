package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/placement-api/internal/service"
	"github.com/noah-isme/placement-api/pkg/response"
)

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	counts  func() map[string]int
}

// NewMetricsHandler constructs a metrics handler. counts reports store sizes and may be nil.
func NewMetricsHandler(metrics *service.MetricsService, counts func() map[string]int) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, counts: counts}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for readiness/liveness usage.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Summary godoc
// @Summary System metrics summary
// @Description Aggregated request, cache and lifecycle counters plus store sizes
// @Tags Metrics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /staff/metrics [get]
func (h *MetricsHandler) Summary(c *gin.Context) {
	var meta map[string]interface{}
	if h.counts != nil {
		meta = map[string]interface{}{"entities": h.counts()}
	}
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil, meta)
}
