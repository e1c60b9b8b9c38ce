package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uok-ict/portal-api/internal/service"
	"github.com/uok-ict/portal-api/pkg/response"
)

// MetricsHandler exposes Prometheus scraping and the dashboard snapshot.
type MetricsHandler struct {
	service *service.MetricsService
}

// NewMetricsHandler creates a new handler.
func NewMetricsHandler(svc *service.MetricsService) *MetricsHandler {
	return &MetricsHandler{service: svc}
}

// Prometheus serves the scrape endpoint.
func (h *MetricsHandler) Prometheus() gin.HandlerFunc {
	return gin.WrapH(h.service.Handler())
}

// Snapshot godoc
// @Summary Aggregate runtime metrics
// @Tags Metrics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /metrics/snapshot [get]
func (h *MetricsHandler) Snapshot(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Snapshot(), nil)
}
