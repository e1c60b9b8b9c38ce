package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/uok-ict/portal-api/internal/models"
	"github.com/uok-ict/portal-api/internal/service"
	appErrors "github.com/uok-ict/portal-api/pkg/errors"
	"github.com/uok-ict/portal-api/pkg/response"
)

// AdmissionHandler wires HTTP endpoints to the admission service.
type AdmissionHandler struct {
	service *service.AdmissionService
}

// NewAdmissionHandler creates a new handler.
func NewAdmissionHandler(svc *service.AdmissionService) *AdmissionHandler {
	return &AdmissionHandler{service: svc}
}

// Apply godoc
// @Summary Start an admission application
// @Description Creates the application and its reference-code account, returns one-time reference credentials
// @Tags Admissions
// @Accept json
// @Produce json
// @Param payload body models.ApplyRequest true "Applicant details"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /admissions/apply [post]
func (h *AdmissionHandler) Apply(c *gin.Context) {
	var req models.ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid application payload"))
		return
	}

	result, err := h.service.Apply(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Track godoc
// @Summary Track an application by reference code
// @Tags Admissions
// @Produce json
// @Param regNumber path string true "Reference code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admissions/track/{regNumber} [get]
func (h *AdmissionHandler) Track(c *gin.Context) {
	app, err := h.service.GetByRegNumber(c.Request.Context(), c.Param("regNumber"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, nil)
}

// List godoc
// @Summary List applications
// @Description Staff review queue with status/program/search filters
// @Tags Admissions
// @Produce json
// @Param status query string false "Lifecycle status"
// @Param program query string false "Program code"
// @Param search query string false "Name, email or reference code"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admissions [get]
func (h *AdmissionHandler) List(c *gin.Context) {
	filter := parseApplicationFilter(c)
	apps, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, apps, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// Get godoc
// @Summary Get one application
// @Tags Admissions
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admissions/{id} [get]
func (h *AdmissionHandler) Get(c *gin.Context) {
	app, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, nil)
}

// UpdateDocuments godoc
// @Summary Update document verification flags
// @Description Allowed only before final submission
// @Tags Admissions
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body models.DocumentUpdateRequest true "Verification flags"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admissions/{id}/documents [put]
func (h *AdmissionHandler) UpdateDocuments(c *gin.Context) {
	var req models.DocumentUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid document payload"))
		return
	}

	app, err := h.service.UpdateDocuments(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, nil)
}

// Submit godoc
// @Summary Finalize an application
// @Description Stamps the one-time submission timestamp; requires all documents verified
// @Tags Admissions
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admissions/{id}/submit [post]
func (h *AdmissionHandler) Submit(c *gin.Context) {
	app, err := h.service.Submit(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, nil)
}

// StartReview godoc
// @Summary Move an application into review
// @Tags Admissions
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admissions/{id}/review [post]
func (h *AdmissionHandler) StartReview(c *gin.Context) {
	app, err := h.service.StartReview(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, nil)
}

// Decide godoc
// @Summary Approve or reject an application
// @Tags Admissions
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body models.DecisionRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /admissions/{id}/decision [post]
func (h *AdmissionHandler) Decide(c *gin.Context) {
	var req models.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}

	app, err := h.service.Decide(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, nil)
}

// Stats godoc
// @Summary Review queue counts by status
// @Tags Admissions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admissions/stats [get]
func (h *AdmissionHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// ExportCSV godoc
// @Summary Download the filtered review queue as CSV
// @Tags Admissions
// @Produce text/csv
// @Param status query string false "Lifecycle status"
// @Param program query string false "Program code"
// @Success 200 {string} string "CSV payload"
// @Router /admissions/export [get]
func (h *AdmissionHandler) ExportCSV(c *gin.Context) {
	payload, err := h.service.ExportCSV(c.Request.Context(), parseApplicationFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("applications-%s.csv", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", payload)
}

func parseApplicationFilter(c *gin.Context) models.ApplicationFilter {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return models.ApplicationFilter{
		Status:    models.ApplicationStatus(c.Query("status")),
		Program:   c.Query("program"),
		Search:    c.Query("search"),
		Page:      page,
		PageSize:  pageSize,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
}
