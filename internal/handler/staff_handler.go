package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/placement-api/internal/dto"
	"github.com/noah-isme/placement-api/internal/models"
	appErrors "github.com/noah-isme/placement-api/pkg/errors"
	"github.com/noah-isme/placement-api/pkg/response"
)

type staffService interface {
	DecideInternship(ctx context.Context, staffID, internshipID string, req dto.DecisionRequest) (*models.Internship, error)
	DecideRegistration(ctx context.Context, staffID, repID string, req dto.DecisionRequest) (*models.CompanyRepresentative, error)
	ApproveWithdrawal(ctx context.Context, staffID, applicationID string) (*models.Application, error)
	RejectWithdrawal(ctx context.Context, staffID, applicationID string) (*models.Application, error)
	PendingInternships(ctx context.Context) ([]models.Internship, error)
	PendingRegistrations(ctx context.Context) ([]models.CompanyRepresentative, error)
	PendingWithdrawals(ctx context.Context) ([]models.WithdrawalRequestView, error)
	Report(ctx context.Context, query dto.InternshipReportQuery) ([]models.Internship, *models.Pagination, error)
	ExportReport(ctx context.Context, query dto.InternshipReportQuery) (string, string, []byte, error)
	Activity(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, *models.Pagination, error)
}

// StaffHandler serves career center staff endpoints.
type StaffHandler struct {
	service staffService
}

// NewStaffHandler constructs the handler.
func NewStaffHandler(svc staffService) *StaffHandler {
	return &StaffHandler{service: svc}
}

// PendingInternships godoc
// @Summary Pending internships
// @Tags Staff
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /staff/internships/pending [get]
func (h *StaffHandler) PendingInternships(c *gin.Context) {
	items, err := h.service.PendingInternships(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// DecideInternship godoc
// @Summary Approve or reject internship
// @Tags Staff
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Internship ID"
// @Param payload body dto.DecisionRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /staff/internships/{id}/decision [post]
func (h *StaffHandler) DecideInternship(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}

	var req dto.DecisionRequest
	if !bindJSON(c, &req, "invalid decision payload") {
		return
	}

	item, err := h.service.DecideInternship(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}

// PendingRegistrations godoc
// @Summary Pending representative registrations
// @Tags Staff
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /staff/registrations/pending [get]
func (h *StaffHandler) PendingRegistrations(c *gin.Context) {
	items, err := h.service.PendingRegistrations(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// DecideRegistration godoc
// @Summary Approve or reject representative
// @Description Rejection removes the registration entirely
// @Tags Staff
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Representative ID"
// @Param payload body dto.DecisionRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Router /staff/registrations/{id}/decision [post]
func (h *StaffHandler) DecideRegistration(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}

	var req dto.DecisionRequest
	if !bindJSON(c, &req, "invalid decision payload") {
		return
	}

	rep, err := h.service.DecideRegistration(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rep)
}

// PendingWithdrawals godoc
// @Summary Pending withdrawal requests
// @Tags Staff
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /staff/withdrawals/pending [get]
func (h *StaffHandler) PendingWithdrawals(c *gin.Context) {
	items, err := h.service.PendingWithdrawals(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// ApproveWithdrawal godoc
// @Summary Approve withdrawal
// @Description Withdraws the application and releases a confirmed slot
// @Tags Staff
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /staff/withdrawals/{id}/approve [post]
func (h *StaffHandler) ApproveWithdrawal(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}

	app, err := h.service.ApproveWithdrawal(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, app)
}

// RejectWithdrawal godoc
// @Summary Reject withdrawal
// @Tags Staff
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /staff/withdrawals/{id}/reject [post]
func (h *StaffHandler) RejectWithdrawal(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}

	app, err := h.service.RejectWithdrawal(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, app)
}

// Report godoc
// @Summary Internship report
// @Tags Staff
// @Produce json
// @Security BearerAuth
// @Param status query string false "Pending, Approved, Rejected or Filled"
// @Param major query string false "Preferred major"
// @Param level query string false "Basic, Intermediate or Advanced"
// @Param company query string false "Company name"
// @Param closing_before query string false "YYYY-MM-DD"
// @Param q query string false "Keyword in title or description"
// @Param sort query string false "title or closing_date"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /staff/reports/internships [get]
func (h *StaffHandler) Report(c *gin.Context) {
	query, ok := bindReportQuery(c)
	if !ok {
		return
	}

	items, pagination, err := h.service.Report(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Export godoc
// @Summary Export internship report
// @Tags Staff
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /staff/reports/internships/export [get]
func (h *StaffHandler) Export(c *gin.Context) {
	query, ok := bindReportQuery(c)
	if !ok {
		return
	}

	filename, contentType, body, err := h.service.ExportReport(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, filename, contentType, body)
}

// Activity godoc
// @Summary Activity log
// @Tags Staff
// @Produce json
// @Security BearerAuth
// @Param actor_id query string false "Actor"
// @Param action query string false "Action, e.g. application.submitted"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /staff/activity [get]
func (h *StaffHandler) Activity(c *gin.Context) {
	filter := models.ActivityFilter{
		ActorID:  c.Query("actor_id"),
		Action:   models.ActivityAction(c.Query("action")),
		Page:     queryInt(c, "page"),
		PageSize: queryInt(c, "page_size"),
	}

	items, pagination, err := h.service.Activity(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

func bindReportQuery(c *gin.Context) (dto.InternshipReportQuery, bool) {
	var query dto.InternshipReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.WithCause(appErrors.ErrValidation, err, "invalid query parameters"))
		return query, false
	}
	return query, true
}
