package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/placement-api/internal/dto"
	"github.com/noah-isme/placement-api/internal/models"
	"github.com/noah-isme/placement-api/internal/repository"
	appErrors "github.com/noah-isme/placement-api/pkg/errors"
	"github.com/noah-isme/placement-api/pkg/keylock"
)

// ApplicationService implements the student operations of the placement lifecycle.
type ApplicationService struct {
	*engine
	flight singleflight.Group
}

// NewApplicationService constructs the student-facing manager.
func NewApplicationService(deps Dependencies) *ApplicationService {
	return &ApplicationService{engine: newEngine(deps)}
}

// Discover lists the postings a student may see, sorted by title.
func (s *ApplicationService) Discover(ctx context.Context, studentID string, openOnly bool) (items []models.Internship, err error) {
	defer func() { err = s.observe("discover", err) }()

	today := s.today()
	cached, gen, hit := s.cache.Lookup(ctx, studentID, openOnly, today)
	if hit {
		return cached, nil
	}

	// The flight key carries the generation so a caller arriving after a
	// purge never joins a read that started before it.
	key := discoveryKey(gen, studentID, openOnly, today)
	result, err, _ := s.flight.Do(key, func() (interface{}, error) {
		student, err := s.loadStudent(ctx, studentID)
		if err != nil {
			return nil, err
		}
		all, err := s.store.ListInternships(ctx)
		if err != nil {
			return nil, appErrors.WithCause(appErrors.ErrInternal, err, "failed to list internships")
		}

		out := make([]models.Internship, 0, len(all))
		for i := range all {
			if IsDiscoverable(&all[i], student, today, openOnly) {
				out = append(out, all[i].StudentView())
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Title == out[j].Title {
				return out[i].ID < out[j].ID
			}
			return out[i].Title < out[j].Title
		})

		s.cache.Fill(ctx, gen, studentID, openOnly, today, out)
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.Internship), nil
}

// Apply creates a Pending application for the student.
func (s *ApplicationService) Apply(ctx context.Context, studentID string, req dto.ApplyRequest) (app *models.Application, err error) {
	defer func() { err = s.observe("apply", err) }()

	if err := s.validate(req, "invalid application payload"); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(keylock.Student(studentID), keylock.Internship(req.InternshipID))
	defer unlock()

	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if err := CheckApplicationLimit(student, s.opts.MaxStudentApplications); err != nil {
		return nil, err
	}
	internship, err := s.loadInternship(ctx, req.InternshipID)
	if err != nil {
		return nil, err
	}
	if err := CheckApplyEligibility(student, internship, s.today()); err != nil {
		return nil, err
	}
	for _, id := range student.ApplicationIDs {
		if models.ContainsID(internship.ApplicationIDs, id) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student already applied to this internship")
		}
	}

	now := s.now().UTC()
	created := models.Application{
		ID:           s.ids(),
		StudentID:    student.ID,
		InternshipID: internship.ID,
		Status:       models.ApplicationPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	student.ApplicationIDs = append(student.ApplicationIDs, created.ID)
	internship.ApplicationIDs = append(internship.ApplicationIDs, created.ID)

	changes := models.ChangeSet{
		Internships:  []models.Internship{*internship},
		Applications: []models.Application{created},
		Students:     []models.Student{*student},
	}
	entry := activity(student.ID, models.RoleStudent, models.ActionApplicationSubmitted, created.ID,
		"applied to "+internship.Title)
	if err := s.commit(ctx, changes, entry); err != nil {
		return nil, err
	}
	return &created, nil
}

// RequestWithdrawal flags an application for staff adjudication. Status is left unchanged.
func (s *ApplicationService) RequestWithdrawal(ctx context.Context, studentID, applicationID string, req dto.WithdrawalRequest) (app *models.Application, err error) {
	defer func() { err = s.observe("request_withdrawal", err) }()

	if err := s.validate(req, "invalid withdrawal payload"); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(keylock.Student(studentID))
	defer unlock()

	app, err = s.ownedApplication(ctx, studentID, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Status == models.ApplicationWithdrawn {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "application is already withdrawn")
	}
	if app.WithdrawalRequested {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "withdrawal already requested")
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = models.DefaultWithdrawalReason
		if app.Confirmed {
			reason = models.DefaultConfirmedWithdrawalReason
		}
	}
	app.WithdrawalRequested = true
	app.WithdrawalReason = &reason
	app.UpdatedAt = s.now().UTC()

	entry := activity(studentID, models.RoleStudent, models.ActionWithdrawalRequested, app.ID, reason)
	if err := s.commit(ctx, models.ChangeSet{Applications: []models.Application{*app}}, entry); err != nil {
		return nil, err
	}
	return app, nil
}

// AcceptPlacement confirms a Successful application and consumes a slot.
func (s *ApplicationService) AcceptPlacement(ctx context.Context, studentID, applicationID string) (app *models.Application, err error) {
	defer func() { err = s.observe("accept_placement", err) }()

	keys := []string{keylock.Student(studentID)}
	if peek := s.peekApplication(ctx, applicationID); peek != nil {
		keys = append(keys, keylock.Internship(peek.InternshipID))
	}
	unlock := s.locks.Lock(keys...)
	defer unlock()

	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student.HasPlacement() {
		return nil, appErrors.Clone(appErrors.ErrAlreadyPlaced, "student already accepted a placement")
	}
	app, err = s.ownedApplication(ctx, studentID, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Status != models.ApplicationSuccessful {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "only successful applications can be accepted")
	}
	internship, err := s.loadInternship(ctx, app.InternshipID)
	if err != nil {
		return nil, err
	}
	if internship.IsFull() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "internship has no free slot")
	}

	siblings, err := s.siblingsToCancel(ctx, student, app.ID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	app.Confirmed = true
	app.UpdatedAt = now

	internship.FilledSlots++
	if internship.IsFull() {
		internship.Status = models.InternshipFilled
	}
	internship.UpdatedAt = now

	placed := internship.ID
	student.AcceptedInternshipID = &placed

	changes := models.ChangeSet{
		Internships:  []models.Internship{*internship},
		Applications: []models.Application{*app},
		Students:     []models.Student{*student},
	}
	for _, sibling := range siblings {
		sibling.Status = models.ApplicationWithdrawn
		sibling.WithdrawalRequested = false
		sibling.UpdatedAt = now
		changes.Applications = append(changes.Applications, sibling)
	}

	entry := activity(studentID, models.RoleStudent, models.ActionPlacementAccepted, app.ID,
		"accepted placement at "+internship.CompanyName)
	if err := s.commit(ctx, changes, entry); err != nil {
		return nil, err
	}
	if len(siblings) > 0 {
		s.logger.Info("sibling applications withdrawn",
			zap.String("student_id", studentID),
			zap.Int("count", len(siblings)),
			zap.String("policy", s.opts.SiblingPolicy),
		)
	}
	return app, nil
}

func (s *ApplicationService) siblingsToCancel(ctx context.Context, student *models.Student, acceptedID string) ([]models.Application, error) {
	var out []models.Application
	for _, id := range student.ApplicationIDs {
		if id == acceptedID {
			continue
		}
		sibling, err := s.store.GetApplication(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, lookupError(err, "application")
		}
		if s.cancels(sibling) {
			out = append(out, *sibling)
		}
	}
	return out, nil
}

func (s *ApplicationService) cancels(app *models.Application) bool {
	switch app.Status {
	case models.ApplicationPending:
		return true
	case models.ApplicationSuccessful:
		return s.opts.SiblingPolicy == SiblingPolicyPendingAndSuccessful && !app.Confirmed
	}
	return false
}

// ListApplications returns the student's applications with their posting summary.
func (s *ApplicationService) ListApplications(ctx context.Context, studentID string) ([]models.ApplicationDetail, error) {
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	out := make([]models.ApplicationDetail, 0, len(student.ApplicationIDs))
	for _, id := range student.ApplicationIDs {
		app, err := s.store.GetApplication(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, lookupError(err, "application")
		}
		detail := models.ApplicationDetail{Application: *app}
		if internship, err := s.store.GetInternship(ctx, app.InternshipID); err == nil {
			detail.InternshipTitle = internship.Title
			detail.CompanyName = internship.CompanyName
			detail.InternshipState = internship.Status
		}
		out = append(out, detail)
	}
	return out, nil
}
