package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uok-ict/portal-api/internal/service"
	"github.com/uok-ict/portal-api/pkg/response"
)

// CatalogHandler serves the office, module and program catalogs.
type CatalogHandler struct {
	service *service.CatalogService
}

// NewCatalogHandler creates a new handler.
func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// Offices godoc
// @Summary Office catalog
// @Tags Catalogs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalogs/offices [get]
func (h *CatalogHandler) Offices(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Offices(), nil)
}

// Modules godoc
// @Summary Teachable module catalog
// @Tags Catalogs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalogs/modules [get]
func (h *CatalogHandler) Modules(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Modules(), nil)
}

// Programs godoc
// @Summary Program catalog
// @Tags Catalogs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalogs/programs [get]
func (h *CatalogHandler) Programs(c *gin.Context) {
	programs, err := h.service.Programs(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, programs, nil)
}
