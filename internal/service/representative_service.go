package service

import (
	"context"
	"errors"
	"time"

	"github.com/noah-isme/placement-api/internal/dto"
	"github.com/noah-isme/placement-api/internal/models"
	"github.com/noah-isme/placement-api/internal/repository"
	appErrors "github.com/noah-isme/placement-api/pkg/errors"
	"github.com/noah-isme/placement-api/pkg/keylock"
)

const dateLayout = "2006-01-02"

// RepresentativeService implements posting management and application review.
type RepresentativeService struct {
	*engine
}

// NewRepresentativeService constructs the representative-facing manager.
func NewRepresentativeService(deps Dependencies) *RepresentativeService {
	return &RepresentativeService{engine: newEngine(deps)}
}

// CreateInternship adds a Pending, invisible posting owned by the representative.
func (s *RepresentativeService) CreateInternship(ctx context.Context, repID string, req dto.CreateInternshipRequest) (item *models.Internship, err error) {
	defer func() { err = s.observe("create_internship", err) }()

	if err := s.validate(req, "invalid internship payload"); err != nil {
		return nil, err
	}
	opening, closing, err := parseWindow(req.OpeningDate, req.ClosingDate)
	if err != nil {
		return nil, err
	}
	if !models.IsKnownMajor(req.PreferredMajor) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown preferred major")
	}

	unlock := s.locks.Lock(keylock.Representative(repID))
	defer unlock()

	rep, err := s.approvedRepresentative(ctx, repID)
	if err != nil {
		return nil, err
	}
	if err := CheckPostingLimit(rep, s.opts.MaxRepInternships); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	created := models.Internship{
		ID:               s.ids(),
		Title:            req.Title,
		Description:      req.Description,
		Level:            req.Level,
		PreferredMajor:   req.PreferredMajor,
		OpeningDate:      opening,
		ClosingDate:      closing,
		CompanyName:      rep.CompanyName,
		RepresentativeID: rep.ID,
		NumSlots:         req.NumSlots,
		Status:           models.InternshipPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	rep.InternshipIDs = append(rep.InternshipIDs, created.ID)

	changes := models.ChangeSet{
		Internships:     []models.Internship{created},
		Representatives: []models.CompanyRepresentative{*rep},
	}
	entry := activity(rep.ID, models.RoleRepresentative, models.ActionInternshipCreated, created.ID, "created "+created.Title)
	if err := s.commit(ctx, changes, entry); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateInternship edits a posting that staff has not ruled on yet.
func (s *RepresentativeService) UpdateInternship(ctx context.Context, repID, internshipID string, req dto.UpdateInternshipRequest) (item *models.Internship, err error) {
	defer func() { err = s.observe("update_internship", err) }()

	if err := s.validate(req, "invalid internship payload"); err != nil {
		return nil, err
	}
	if req.Empty() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no fields to update")
	}

	unlock := s.locks.Lock(keylock.Internship(internshipID))
	defer unlock()

	item, err = s.ownedInternship(ctx, repID, internshipID)
	if err != nil {
		return nil, err
	}
	if item.Status != models.InternshipPending {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "only pending internships can be edited")
	}

	if req.Title != nil {
		item.Title = *req.Title
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Level != nil {
		item.Level = *req.Level
	}
	if req.PreferredMajor != nil {
		if !models.IsKnownMajor(*req.PreferredMajor) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown preferred major")
		}
		item.PreferredMajor = *req.PreferredMajor
	}
	if req.NumSlots != nil {
		item.NumSlots = *req.NumSlots
	}
	opening, closing := item.OpeningDate.Format(dateLayout), item.ClosingDate.Format(dateLayout)
	if req.OpeningDate != nil {
		opening = *req.OpeningDate
	}
	if req.ClosingDate != nil {
		closing = *req.ClosingDate
	}
	if item.OpeningDate, item.ClosingDate, err = parseWindow(opening, closing); err != nil {
		return nil, err
	}
	item.UpdatedAt = s.now().UTC()

	entry := activity(repID, models.RoleRepresentative, models.ActionInternshipUpdated, item.ID, "updated "+item.Title)
	if err := s.commit(ctx, models.ChangeSet{Internships: []models.Internship{*item}}, entry); err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteInternship removes a Pending or Rejected posting.
func (s *RepresentativeService) DeleteInternship(ctx context.Context, repID, internshipID string) (err error) {
	defer func() { err = s.observe("delete_internship", err) }()

	unlock := s.locks.Lock(keylock.Representative(repID), keylock.Internship(internshipID))
	defer unlock()

	rep, err := s.approvedRepresentative(ctx, repID)
	if err != nil {
		return err
	}
	item, err := s.ownedInternship(ctx, repID, internshipID)
	if err != nil {
		return err
	}
	if item.Status != models.InternshipPending && item.Status != models.InternshipRejected {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "only pending or rejected internships can be deleted")
	}

	rep.InternshipIDs = models.RemoveID(rep.InternshipIDs, item.ID)
	changes := models.ChangeSet{
		Representatives:      []models.CompanyRepresentative{*rep},
		RemovedInternshipIDs: []string{item.ID},
	}
	entry := activity(repID, models.RoleRepresentative, models.ActionInternshipDeleted, item.ID, "deleted "+item.Title)
	return s.commit(ctx, changes, entry)
}

// ToggleVisibility flips the visibility of an Approved posting.
func (s *RepresentativeService) ToggleVisibility(ctx context.Context, repID, internshipID string) (item *models.Internship, err error) {
	defer func() { err = s.observe("toggle_visibility", err) }()

	unlock := s.locks.Lock(keylock.Internship(internshipID))
	defer unlock()

	item, err = s.ownedInternship(ctx, repID, internshipID)
	if err != nil {
		return nil, err
	}
	if item.Status != models.InternshipApproved {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "visibility can only change on approved internships")
	}
	item.Visible = !item.Visible
	item.UpdatedAt = s.now().UTC()

	state := "hidden"
	if item.Visible {
		state = "visible"
	}
	entry := activity(repID, models.RoleRepresentative, models.ActionVisibilityToggled, item.ID, item.Title+" is now "+state)
	if err := s.commit(ctx, models.ChangeSet{Internships: []models.Internship{*item}}, entry); err != nil {
		return nil, err
	}
	return item, nil
}

// ReviewApplication marks a Pending application on one of the representative's postings.
func (s *RepresentativeService) ReviewApplication(ctx context.Context, repID, applicationID string, req dto.ReviewApplicationRequest) (app *models.Application, err error) {
	defer func() { err = s.observe("review_application", err) }()

	if err := s.validate(req, "invalid review payload"); err != nil {
		return nil, err
	}

	var keys []string
	if peek := s.peekApplication(ctx, applicationID); peek != nil {
		keys = append(keys, keylock.Internship(peek.InternshipID), keylock.Student(peek.StudentID))
	}
	unlock := s.locks.Lock(keys...)
	defer unlock()

	app, err = s.loadApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedInternship(ctx, repID, app.InternshipID); err != nil {
		return nil, err
	}
	if app.Status != models.ApplicationPending {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "application has already been reviewed")
	}

	app.Status = models.ApplicationUnsuccessful
	if *req.Approve {
		app.Status = models.ApplicationSuccessful
	}
	app.UpdatedAt = s.now().UTC()

	entry := activity(repID, models.RoleRepresentative, models.ActionApplicationReviewed, app.ID, "marked "+string(app.Status))
	if err := s.commit(ctx, models.ChangeSet{Applications: []models.Application{*app}}, entry); err != nil {
		return nil, err
	}
	return app, nil
}

// ListInternships returns the representative's postings in creation order.
func (s *RepresentativeService) ListInternships(ctx context.Context, repID string) ([]models.Internship, error) {
	rep, err := s.loadRepresentative(ctx, repID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Internship, 0, len(rep.InternshipIDs))
	for _, id := range rep.InternshipIDs {
		item, err := s.store.GetInternship(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, lookupError(err, "internship")
		}
		out = append(out, *item)
	}
	return out, nil
}

// ListApplications returns the applications received by one of the representative's postings.
func (s *RepresentativeService) ListApplications(ctx context.Context, repID, internshipID string) ([]models.Application, error) {
	item, err := s.ownedInternship(ctx, repID, internshipID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Application, 0, len(item.ApplicationIDs))
	for _, id := range item.ApplicationIDs {
		app, err := s.store.GetApplication(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, lookupError(err, "application")
		}
		out = append(out, *app)
	}
	return out, nil
}

// StudentDetails exposes an applicant's profile to a representative whose posting they applied to.
func (s *RepresentativeService) StudentDetails(ctx context.Context, repID, studentID string) (*models.Student, error) {
	rep, err := s.loadRepresentative(ctx, repID)
	if err != nil {
		return nil, err
	}
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	for _, id := range student.ApplicationIDs {
		app, err := s.store.GetApplication(ctx, id)
		if err != nil {
			continue
		}
		if models.ContainsID(rep.InternshipIDs, app.InternshipID) {
			return student, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrForbidden, "student has not applied to your internships")
}

func (s *RepresentativeService) ownedInternship(ctx context.Context, repID, internshipID string) (*models.Internship, error) {
	if _, err := s.approvedRepresentative(ctx, repID); err != nil {
		return nil, err
	}
	item, err := s.loadInternship(ctx, internshipID)
	if err != nil {
		return nil, err
	}
	if item.RepresentativeID != repID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "internship belongs to another representative")
	}
	return item, nil
}

// parseWindow parses both dates and requires opening before closing.
func parseWindow(opening, closing string) (time.Time, time.Time, error) {
	openAt, err := time.Parse(dateLayout, opening)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.WithCause(appErrors.ErrValidation, err, "invalid opening date")
	}
	closeAt, err := time.Parse(dateLayout, closing)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.WithCause(appErrors.ErrValidation, err, "invalid closing date")
	}
	if !openAt.Before(closeAt) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "opening date must be before closing date")
	}
	return openAt, closeAt, nil
}
