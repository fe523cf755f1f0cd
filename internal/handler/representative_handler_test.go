package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/placement-api/internal/dto"
	"github.com/noah-isme/placement-api/internal/middleware"
	"github.com/noah-isme/placement-api/internal/models"
	appErrors "github.com/noah-isme/placement-api/pkg/errors"
)

type representativeServiceMock struct {
	createReq   dto.CreateInternshipRequest
	createErr   error
	updateID    string
	updateReq   dto.UpdateInternshipRequest
	deleteErr   error
	deletedID   string
	reviewReq   dto.ReviewApplicationRequest
	studentErr  error
	repIDs      []string
	toggledFrom bool
}

func (m *representativeServiceMock) CreateInternship(ctx context.Context, repID string, req dto.CreateInternshipRequest) (*models.Internship, error) {
	m.repIDs = append(m.repIDs, repID)
	m.createReq = req
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &models.Internship{ID: "i1", Title: req.Title, RepresentativeID: repID, Status: models.InternshipPending}, nil
}

func (m *representativeServiceMock) UpdateInternship(ctx context.Context, repID, internshipID string, req dto.UpdateInternshipRequest) (*models.Internship, error) {
	m.updateID = internshipID
	m.updateReq = req
	return &models.Internship{ID: internshipID}, nil
}

func (m *representativeServiceMock) DeleteInternship(ctx context.Context, repID, internshipID string) error {
	m.deletedID = internshipID
	return m.deleteErr
}

func (m *representativeServiceMock) ToggleVisibility(ctx context.Context, repID, internshipID string) (*models.Internship, error) {
	return &models.Internship{ID: internshipID, Visible: !m.toggledFrom}, nil
}

func (m *representativeServiceMock) ReviewApplication(ctx context.Context, repID, applicationID string, req dto.ReviewApplicationRequest) (*models.Application, error) {
	m.reviewReq = req
	status := models.ApplicationUnsuccessful
	if req.Approve != nil && *req.Approve {
		status = models.ApplicationSuccessful
	}
	return &models.Application{ID: applicationID, Status: status}, nil
}

func (m *representativeServiceMock) ListInternships(ctx context.Context, repID string) ([]models.Internship, error) {
	return []models.Internship{{ID: "i1", RepresentativeID: repID}}, nil
}

func (m *representativeServiceMock) ListApplications(ctx context.Context, repID, internshipID string) ([]models.Application, error) {
	return []models.Application{{ID: "a1", InternshipID: internshipID}}, nil
}

func (m *representativeServiceMock) StudentDetails(ctx context.Context, repID, studentID string) (*models.Student, error) {
	if m.studentErr != nil {
		return nil, m.studentErr
	}
	return &models.Student{ID: studentID}, nil
}

func repContext(method, target string, body []byte, params gin.Params) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = params
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "r1", Role: models.RoleRepresentative})
	return c, w
}

func TestRepresentativeHandlerCreate(t *testing.T) {
	svc := &representativeServiceMock{}
	handler := NewRepresentativeHandler(svc)
	body, _ := json.Marshal(dto.CreateInternshipRequest{
		Title: "Backend", Description: "Go", Level: models.LevelBasic, PreferredMajor: "Computer Science",
		OpeningDate: "2025-01-01", ClosingDate: "2025-02-01", NumSlots: 2,
	})
	c, w := repContext(http.MethodPost, "/representative/internships", body, nil)

	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []string{"r1"}, svc.repIDs)
	assert.Equal(t, "Backend", svc.createReq.Title)
	assert.Equal(t, 2, svc.createReq.NumSlots)
}

func TestRepresentativeHandlerCreatePostingLimit(t *testing.T) {
	handler := NewRepresentativeHandler(&representativeServiceMock{createErr: appErrors.Clone(appErrors.ErrLimitExceeded, "representative already has 5 internships")})
	body, _ := json.Marshal(dto.CreateInternshipRequest{Title: "Backend"})
	c, w := repContext(http.MethodPost, "/representative/internships", body, nil)

	handler.Create(c)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "LIMIT_EXCEEDED")
}

func TestRepresentativeHandlerUpdatePassesPartialFields(t *testing.T) {
	svc := &representativeServiceMock{}
	handler := NewRepresentativeHandler(svc)
	c, w := repContext(http.MethodPut, "/representative/internships/i1", []byte(`{"num_slots":4}`), gin.Params{{Key: "id", Value: "i1"}})

	handler.Update(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "i1", svc.updateID)
	require.NotNil(t, svc.updateReq.NumSlots)
	assert.Equal(t, 4, *svc.updateReq.NumSlots)
	assert.Nil(t, svc.updateReq.Title)
}

func TestRepresentativeHandlerDelete(t *testing.T) {
	svc := &representativeServiceMock{}
	handler := NewRepresentativeHandler(svc)
	c, w := repContext(http.MethodDelete, "/representative/internships/i1", nil, gin.Params{{Key: "id", Value: "i1"}})

	handler.Delete(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "i1", svc.deletedID)

	svc.deleteErr = appErrors.Clone(appErrors.ErrPreconditionFailed, "only pending or rejected internships can be deleted")
	c, w = repContext(http.MethodDelete, "/representative/internships/i1", nil, gin.Params{{Key: "id", Value: "i1"}})
	handler.Delete(c)
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
}

func TestRepresentativeHandlerReviewRequiresDecision(t *testing.T) {
	svc := &representativeServiceMock{}
	handler := NewRepresentativeHandler(svc)

	c, w := repContext(http.MethodPost, "/representative/applications/a1/review", []byte(`{"approve":true}`), gin.Params{{Key: "id", Value: "a1"}})
	handler.Review(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.reviewReq.Approve)
	assert.True(t, *svc.reviewReq.Approve)

	c, w = repContext(http.MethodPost, "/representative/applications/a1/review", []byte(`{"approve":`), gin.Params{{Key: "id", Value: "a1"}})
	handler.Review(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRepresentativeHandlerStudentForbidden(t *testing.T) {
	handler := NewRepresentativeHandler(&representativeServiceMock{studentErr: appErrors.Clone(appErrors.ErrForbidden, "student has not applied to your internships")})
	c, w := repContext(http.MethodGet, "/representative/students/s1", nil, gin.Params{{Key: "id", Value: "s1"}})

	handler.Student(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRepresentativeHandlerListsAndToggle(t *testing.T) {
	handler := NewRepresentativeHandler(&representativeServiceMock{})

	c, w := repContext(http.MethodGet, "/representative/internships", nil, nil)
	handler.List(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = repContext(http.MethodGet, "/representative/internships/i1/applications", nil, gin.Params{{Key: "id", Value: "i1"}})
	handler.Applications(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"internship_id":"i1"`)

	c, w = repContext(http.MethodPost, "/representative/internships/i1/visibility", nil, gin.Params{{Key: "id", Value: "i1"}})
	handler.ToggleVisibility(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"visible":true`)
}
