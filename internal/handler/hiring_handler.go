package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uok-ict/portal-api/internal/models"
	"github.com/uok-ict/portal-api/internal/service"
	appErrors "github.com/uok-ict/portal-api/pkg/errors"
	"github.com/uok-ict/portal-api/pkg/response"
)

// HiringHandler wires HTTP endpoints to the hiring service.
type HiringHandler struct {
	service *service.HiringService
}

// NewHiringHandler creates a new handler.
func NewHiringHandler(svc *service.HiringService) *HiringHandler {
	return &HiringHandler{service: svc}
}

// HireStaff godoc
// @Summary Appoint an office head
// @Tags Hiring
// @Accept json
// @Produce json
// @Param payload body models.HireStaffRequest true "Appointment"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /hiring/staff [post]
func (h *HiringHandler) HireStaff(c *gin.Context) {
	var req models.HireStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid hire payload"))
		return
	}

	result, err := h.service.HireStaff(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// HireLecturer godoc
// @Summary Appoint a module lecturer
// @Tags Hiring
// @Accept json
// @Produce json
// @Param payload body models.HireLecturerRequest true "Appointment"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /hiring/lecturers [post]
func (h *HiringHandler) HireLecturer(c *gin.Context) {
	var req models.HireLecturerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid hire payload"))
		return
	}

	result, err := h.service.HireLecturer(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// DeactivateStaff godoc
// @Summary Stop access for the active office head
// @Tags Hiring
// @Produce json
// @Param office path string true "Office code"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /hiring/staff/{office}/deactivate [post]
func (h *HiringHandler) DeactivateStaff(c *gin.Context) {
	profile, err := h.service.DeactivateStaff(c.Request.Context(), c.Param("office"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// DeactivateLecturer godoc
// @Summary Stop access for the active module lecturer
// @Tags Hiring
// @Produce json
// @Param module path string true "Module code"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /hiring/lecturers/{module}/deactivate [post]
func (h *HiringHandler) DeactivateLecturer(c *gin.Context) {
	profile, err := h.service.DeactivateLecturer(c.Request.Context(), c.Param("module"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// ReplaceStaff godoc
// @Summary Replace the active office head
// @Description Deactivates the current holder, then appoints the new one
// @Tags Hiring
// @Accept json
// @Produce json
// @Param payload body models.HireStaffRequest true "Appointment"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /hiring/staff/replace [post]
func (h *HiringHandler) ReplaceStaff(c *gin.Context) {
	var req models.HireStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid hire payload"))
		return
	}

	result, err := h.service.ReplaceStaff(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// ReplaceLecturer godoc
// @Summary Replace the active module lecturer
// @Tags Hiring
// @Accept json
// @Produce json
// @Param payload body models.HireLecturerRequest true "Appointment"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /hiring/lecturers/replace [post]
func (h *HiringHandler) ReplaceLecturer(c *gin.Context) {
	var req models.HireLecturerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid hire payload"))
		return
	}

	result, err := h.service.ReplaceLecturer(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// StaffHistory godoc
// @Summary Appointment history for an office
// @Tags Hiring
// @Produce json
// @Param office path string true "Office code"
// @Success 200 {object} response.Envelope
// @Router /hiring/staff/{office} [get]
func (h *HiringHandler) StaffHistory(c *gin.Context) {
	profiles, err := h.service.StaffHistory(c.Request.Context(), c.Param("office"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profiles, nil)
}

// LecturerHistory godoc
// @Summary Appointment history for a module
// @Tags Hiring
// @Produce json
// @Param module path string true "Module code"
// @Success 200 {object} response.Envelope
// @Router /hiring/lecturers/{module} [get]
func (h *HiringHandler) LecturerHistory(c *gin.Context) {
	profiles, err := h.service.LecturerHistory(c.Request.Context(), c.Param("module"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profiles, nil)
}
