package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uok-ict/portal-api/internal/models"
	"github.com/uok-ict/portal-api/internal/service"
	appErrors "github.com/uok-ict/portal-api/pkg/errors"
	"github.com/uok-ict/portal-api/pkg/response"
)

// ProvisioningHandler wires HTTP endpoints to the provisioning service.
type ProvisioningHandler struct {
	service *service.ProvisioningService
}

// NewProvisioningHandler creates a new handler.
func NewProvisioningHandler(svc *service.ProvisioningService) *ProvisioningHandler {
	return &ProvisioningHandler{service: svc}
}

// IssueAccess godoc
// @Summary Issue portal access for an approved application
// @Description Activates the numbered student account and returns the secret for one-time display
// @Tags Provisioning
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body models.IssueAccessRequest false "Issuance options"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /admissions/{id}/issue-access [post]
func (h *ProvisioningHandler) IssueAccess(c *gin.Context) {
	var req models.IssueAccessRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid issuance payload"))
			return
		}
	}

	result, err := h.service.IssuePortalAccess(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// OfferLetter godoc
// @Summary Download the admission offer letter
// @Tags Provisioning
// @Produce application/pdf
// @Param id path string true "Application ID"
// @Success 200 {string} string "PDF payload"
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admissions/{id}/offer-letter [get]
func (h *ProvisioningHandler) OfferLetter(c *gin.Context) {
	letter, err := h.service.OfferLetter(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "offer-letter.pdf"))
	c.Data(http.StatusOK, "application/pdf", letter)
}
