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

type studentService interface {
	Discover(ctx context.Context, studentID string, openOnly bool) ([]models.Internship, error)
	Apply(ctx context.Context, studentID string, req dto.ApplyRequest) (*models.Application, error)
	RequestWithdrawal(ctx context.Context, studentID, applicationID string, req dto.WithdrawalRequest) (*models.Application, error)
	AcceptPlacement(ctx context.Context, studentID, applicationID string) (*models.Application, error)
	ListApplications(ctx context.Context, studentID string) ([]models.ApplicationDetail, error)
}

// StudentHandler serves the student-facing placement endpoints.
type StudentHandler struct {
	service studentService
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(svc studentService) *StudentHandler {
	return &StudentHandler{service: svc}
}

// Discover godoc
// @Summary Discover internships
// @Description Visible approved postings matching the student's level and major, sorted by title
// @Tags Student
// @Produce json
// @Security BearerAuth
// @Param open_only query bool false "Only postings whose application window is open today" default(true)
// @Success 200 {object} response.Envelope
// @Router /student/internships [get]
func (h *StudentHandler) Discover(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}

	var query dto.DiscoveryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.WithCause(appErrors.ErrValidation, err, "invalid query parameters"))
		return
	}

	items, err := h.service.Discover(c.Request.Context(), claims.UserID, query.OpenOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil, map[string]interface{}{"count": len(items)})
}

// Apply godoc
// @Summary Apply for an internship
// @Tags Student
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.ApplyRequest true "Target internship"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /student/applications [post]
func (h *StudentHandler) Apply(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}

	var req dto.ApplyRequest
	if !bindJSON(c, &req, "invalid application payload") {
		return
	}

	app, err := h.service.Apply(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, app)
}

// List godoc
// @Summary List own applications
// @Tags Student
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /student/applications [get]
func (h *StudentHandler) List(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}

	items, err := h.service.ListApplications(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// Withdraw godoc
// @Summary Request withdrawal
// @Description Flag an application for withdrawal; staff decide the request
// @Tags Student
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param payload body dto.WithdrawalRequest false "Reason"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /student/applications/{id}/withdrawal [post]
func (h *StudentHandler) Withdraw(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}

	var req dto.WithdrawalRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req, "invalid withdrawal payload") {
		return
	}

	app, err := h.service.RequestWithdrawal(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, app)
}

// Accept godoc
// @Summary Accept a placement
// @Description Confirm a successful application; sibling applications are cancelled
// @Tags Student
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /student/applications/{id}/accept [post]
func (h *StudentHandler) Accept(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}

	app, err := h.service.AcceptPlacement(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, app)
}
