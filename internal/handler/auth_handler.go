package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/placement-api/internal/models"
	"github.com/noah-isme/placement-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	RegisterRepresentative(ctx context.Context, req models.RegisterRepresentativeRequest) (*models.CompanyRepresentative, error)
	ChangePassword(ctx context.Context, userID string, role models.UserRole, req models.ChangePasswordRequest) error
	ResetPassword(ctx context.Context, staffID, accountID string, req models.ResetPasswordRequest) error
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate a student, representative or staff member by user ID and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req, "invalid login payload") {
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Register godoc
// @Summary Register company representative
// @Description Submit a representative account for staff approval
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.RegisterRepresentativeRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRepresentativeRequest
	if !bindJSON(c, &req, "invalid registration payload") {
		return
	}

	rep, err := h.service.RegisterRepresentative(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, rep)
}

// ChangePassword godoc
// @Summary Change password
// @Tags Authentication
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.ChangePasswordRequest true "Password payload"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /auth/password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}

	var req models.ChangePasswordRequest
	if !bindJSON(c, &req, "invalid password payload") {
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), claims.UserID, claims.Role, req); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ResetPassword godoc
// @Summary Reset an account password
// @Description Staff set a new password on a student, representative or staff account
// @Tags Staff
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Param payload body models.ResetPasswordRequest true "Password payload"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /staff/accounts/{id}/password [put]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}

	var req models.ResetPasswordRequest
	if !bindJSON(c, &req, "invalid password payload") {
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), claims.UserID, c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Me godoc
// @Summary Current user
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}
	response.OK(c, models.UserInfo{ID: claims.UserID, Name: claims.Name, Role: claims.Role})
}
