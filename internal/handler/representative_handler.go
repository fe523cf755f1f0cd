package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/placement-api/internal/dto"
	"github.com/noah-isme/placement-api/internal/models"
	"github.com/noah-isme/placement-api/pkg/response"
)

type representativeService interface {
	CreateInternship(ctx context.Context, repID string, req dto.CreateInternshipRequest) (*models.Internship, error)
	UpdateInternship(ctx context.Context, repID, internshipID string, req dto.UpdateInternshipRequest) (*models.Internship, error)
	DeleteInternship(ctx context.Context, repID, internshipID string) error
	ToggleVisibility(ctx context.Context, repID, internshipID string) (*models.Internship, error)
	ReviewApplication(ctx context.Context, repID, applicationID string, req dto.ReviewApplicationRequest) (*models.Application, error)
	ListInternships(ctx context.Context, repID string) ([]models.Internship, error)
	ListApplications(ctx context.Context, repID, internshipID string) ([]models.Application, error)
	StudentDetails(ctx context.Context, repID, studentID string) (*models.Student, error)
}

// RepresentativeHandler serves posting management for company representatives.
type RepresentativeHandler struct {
	service representativeService
}

// NewRepresentativeHandler constructs the handler.
func NewRepresentativeHandler(svc representativeService) *RepresentativeHandler {
	return &RepresentativeHandler{service: svc}
}

// List godoc
// @Summary List own internships
// @Tags Representative
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /representative/internships [get]
func (h *RepresentativeHandler) List(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}

	items, err := h.service.ListInternships(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// Create godoc
// @Summary Create internship
// @Description Create a Pending posting awaiting staff approval
// @Tags Representative
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateInternshipRequest true "Internship payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /representative/internships [post]
func (h *RepresentativeHandler) Create(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}

	var req dto.CreateInternshipRequest
	if !bindJSON(c, &req, "invalid internship payload") {
		return
	}

	item, err := h.service.CreateInternship(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update internship
// @Description Edit a posting while it is still Pending
// @Tags Representative
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Internship ID"
// @Param payload body dto.UpdateInternshipRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /representative/internships/{id} [put]
func (h *RepresentativeHandler) Update(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}

	var req dto.UpdateInternshipRequest
	if !bindJSON(c, &req, "invalid internship payload") {
		return
	}

	item, err := h.service.UpdateInternship(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}

// Delete godoc
// @Summary Delete internship
// @Tags Representative
// @Security BearerAuth
// @Param id path string true "Internship ID"
// @Success 204
// @Failure 412 {object} response.Envelope
// @Router /representative/internships/{id} [delete]
func (h *RepresentativeHandler) Delete(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}

	if err := h.service.DeleteInternship(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ToggleVisibility godoc
// @Summary Toggle visibility
// @Description Flip whether an approved posting is shown to students
// @Tags Representative
// @Produce json
// @Security BearerAuth
// @Param id path string true "Internship ID"
// @Success 200 {object} response.Envelope
// @Router /representative/internships/{id}/visibility [post]
func (h *RepresentativeHandler) ToggleVisibility(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}

	item, err := h.service.ToggleVisibility(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}

// Applications godoc
// @Summary List applications for a posting
// @Tags Representative
// @Produce json
// @Security BearerAuth
// @Param id path string true "Internship ID"
// @Success 200 {object} response.Envelope
// @Router /representative/internships/{id}/applications [get]
func (h *RepresentativeHandler) Applications(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}

	items, err := h.service.ListApplications(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// Review godoc
// @Summary Review application
// @Tags Representative
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param payload body dto.ReviewApplicationRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /representative/applications/{id}/review [post]
func (h *RepresentativeHandler) Review(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}

	var req dto.ReviewApplicationRequest
	if !bindJSON(c, &req, "invalid review payload") {
		return
	}

	app, err := h.service.ReviewApplication(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, app)
}

// Student godoc
// @Summary Applicant details
// @Description Profile of a student who applied to one of the caller's postings
// @Tags Representative
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /representative/students/{id} [get]
func (h *RepresentativeHandler) Student(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}

	student, err := h.service.StudentDetails(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, student)
}
