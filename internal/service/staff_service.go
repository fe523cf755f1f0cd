package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/placement-api/internal/dto"
	"github.com/noah-isme/placement-api/internal/models"
	appErrors "github.com/noah-isme/placement-api/pkg/errors"
	"github.com/noah-isme/placement-api/pkg/export"
	"github.com/noah-isme/placement-api/pkg/keylock"
)

// ActivityReader lists recorded activity for staff.
type ActivityReader interface {
	List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, int, error)
}

// StaffService implements career center adjudication and reporting.
type StaffService struct {
	*engine
	activity ActivityReader
}

// NewStaffService constructs the staff-facing manager. reader may be nil when
// activity is not stored.
func NewStaffService(deps Dependencies, reader ActivityReader) *StaffService {
	return &StaffService{engine: newEngine(deps), activity: reader}
}

// DecideInternship approves or rejects a Pending posting.
func (s *StaffService) DecideInternship(ctx context.Context, staffID, internshipID string, req dto.DecisionRequest) (item *models.Internship, err error) {
	defer func() { err = s.observe("decide_internship", err) }()

	if err := s.validate(req, "invalid decision payload"); err != nil {
		return nil, err
	}
	if _, err := s.loadStaff(ctx, staffID); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(keylock.Internship(internshipID))
	defer unlock()

	item, err = s.loadInternship(ctx, internshipID)
	if err != nil {
		return nil, err
	}
	if item.Status != models.InternshipPending {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "internship has already been reviewed")
	}

	action := models.ActionInternshipRejected
	item.Status = models.InternshipRejected
	if *req.Approve {
		action = models.ActionInternshipApproved
		item.Status = models.InternshipApproved
		if s.opts.AutoPublishOnApproval && item.WithinWindow(s.today()) {
			item.Visible = true
		}
	}
	item.UpdatedAt = s.now().UTC()

	entry := activity(staffID, models.RoleStaff, action, item.ID, string(item.Status)+" "+item.Title)
	if err := s.commit(ctx, models.ChangeSet{Internships: []models.Internship{*item}}, entry); err != nil {
		return nil, err
	}
	return item, nil
}

// DecideRegistration approves a representative or discards the registration.
func (s *StaffService) DecideRegistration(ctx context.Context, staffID, repID string, req dto.DecisionRequest) (rep *models.CompanyRepresentative, err error) {
	defer func() { err = s.observe("decide_registration", err) }()

	if err := s.validate(req, "invalid decision payload"); err != nil {
		return nil, err
	}
	if _, err := s.loadStaff(ctx, staffID); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(keylock.Representative(repID))
	defer unlock()

	rep, err = s.loadRepresentative(ctx, repID)
	if err != nil {
		return nil, err
	}
	if rep.Approved {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "representative is already approved")
	}

	if !*req.Approve {
		entry := activity(staffID, models.RoleStaff, models.ActionRegistrationRejected, rep.ID, "rejected registration of "+rep.Name)
		if err := s.commit(ctx, models.ChangeSet{RemovedRepresentativeIDs: []string{rep.ID}}, entry); err != nil {
			return nil, err
		}
		return rep, nil
	}

	rep.Approved = true
	entry := activity(staffID, models.RoleStaff, models.ActionRegistrationApproved, rep.ID, "approved registration of "+rep.Name)
	if err := s.commit(ctx, models.ChangeSet{Representatives: []models.CompanyRepresentative{*rep}}, entry); err != nil {
		return nil, err
	}
	return rep, nil
}

// ApproveWithdrawal executes a requested withdrawal and releases a confirmed slot.
func (s *StaffService) ApproveWithdrawal(ctx context.Context, staffID, applicationID string) (app *models.Application, err error) {
	defer func() { err = s.observe("approve_withdrawal", err) }()

	if _, err := s.loadStaff(ctx, staffID); err != nil {
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
	if !app.WithdrawalRequested {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no withdrawal request pending")
	}

	now := s.now().UTC()
	app.Status = models.ApplicationWithdrawn
	app.WithdrawalRequested = false
	app.UpdatedAt = now
	changes := models.ChangeSet{Applications: []models.Application{*app}}

	if app.Confirmed {
		internship, err := s.loadInternship(ctx, app.InternshipID)
		if err != nil {
			return nil, err
		}
		student, err := s.loadStudent(ctx, app.StudentID)
		if err != nil {
			return nil, err
		}
		if internship.FilledSlots > 0 {
			internship.FilledSlots--
		}
		if internship.Status == models.InternshipFilled && !internship.IsFull() {
			internship.Status = models.InternshipApproved
		}
		internship.UpdatedAt = now
		changes.Internships = []models.Internship{*internship}

		if student.AcceptedInternshipID != nil && *student.AcceptedInternshipID == internship.ID {
			student.AcceptedInternshipID = nil
			changes.Students = []models.Student{*student}
		}
	}

	entry := activity(staffID, models.RoleStaff, models.ActionWithdrawalApproved, app.ID, "approved withdrawal")
	if err := s.commit(ctx, changes, entry); err != nil {
		return nil, err
	}
	return app, nil
}

// RejectWithdrawal clears a withdrawal request without touching status or slots.
func (s *StaffService) RejectWithdrawal(ctx context.Context, staffID, applicationID string) (app *models.Application, err error) {
	defer func() { err = s.observe("reject_withdrawal", err) }()

	if _, err := s.loadStaff(ctx, staffID); err != nil {
		return nil, err
	}

	var keys []string
	if peek := s.peekApplication(ctx, applicationID); peek != nil {
		keys = append(keys, keylock.Student(peek.StudentID))
	}
	unlock := s.locks.Lock(keys...)
	defer unlock()

	app, err = s.loadApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if !app.WithdrawalRequested {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no withdrawal request pending")
	}
	app.WithdrawalRequested = false
	app.WithdrawalReason = nil
	app.UpdatedAt = s.now().UTC()

	entry := activity(staffID, models.RoleStaff, models.ActionWithdrawalRejected, app.ID, "rejected withdrawal")
	if err := s.commit(ctx, models.ChangeSet{Applications: []models.Application{*app}}, entry); err != nil {
		return nil, err
	}
	return app, nil
}

// PendingInternships lists postings awaiting a decision.
func (s *StaffService) PendingInternships(ctx context.Context) ([]models.Internship, error) {
	all, err := s.store.ListInternships(ctx)
	if err != nil {
		return nil, appErrors.WithCause(appErrors.ErrInternal, err, "failed to list internships")
	}
	out := make([]models.Internship, 0)
	for _, item := range all {
		if item.Status == models.InternshipPending {
			out = append(out, item)
		}
	}
	return out, nil
}

// PendingRegistrations lists representatives awaiting approval.
func (s *StaffService) PendingRegistrations(ctx context.Context) ([]models.CompanyRepresentative, error) {
	all, err := s.store.ListRepresentatives(ctx)
	if err != nil {
		return nil, appErrors.WithCause(appErrors.ErrInternal, err, "failed to list representatives")
	}
	out := make([]models.CompanyRepresentative, 0)
	for _, rep := range all {
		if !rep.Approved {
			out = append(out, rep)
		}
	}
	return out, nil
}

// PendingWithdrawals lists applications with an open withdrawal request.
func (s *StaffService) PendingWithdrawals(ctx context.Context) ([]models.WithdrawalRequestView, error) {
	all, err := s.store.ListApplications(ctx)
	if err != nil {
		return nil, appErrors.WithCause(appErrors.ErrInternal, err, "failed to list applications")
	}
	out := make([]models.WithdrawalRequestView, 0)
	for _, app := range all {
		if !app.WithdrawalRequested {
			continue
		}
		view := models.WithdrawalRequestView{Application: app}
		if student, err := s.store.GetStudent(ctx, app.StudentID); err == nil {
			view.StudentName = student.Name
		}
		if internship, err := s.store.GetInternship(ctx, app.InternshipID); err == nil {
			view.InternshipTitle = internship.Title
			view.CompanyName = internship.CompanyName
		}
		out = append(out, view)
	}
	return out, nil
}

// Report filters, sorts and paginates every posting.
func (s *StaffService) Report(ctx context.Context, query dto.InternshipReportQuery) ([]models.Internship, *models.Pagination, error) {
	filter, err := s.reportFilter(query)
	if err != nil {
		return nil, nil, err
	}
	rows, err := s.reportRows(ctx, filter)
	if err != nil {
		return nil, nil, err
	}

	page, size := models.Normalize(filter.Page, filter.PageSize)
	start, end := models.Bounds(page, size, len(rows))
	return rows[start:end], &models.Pagination{Page: page, PageSize: size, TotalCount: len(rows)}, nil
}

// ExportReport renders every row matching the report filter as CSV or PDF.
func (s *StaffService) ExportReport(ctx context.Context, query dto.InternshipReportQuery) (filename, contentType string, body []byte, err error) {
	defer func() { err = s.observe("export_report", err) }()

	format, err := export.ParseFormat(query.Format)
	if err != nil {
		return "", "", nil, appErrors.WithCause(appErrors.ErrValidation, err, "unsupported export format")
	}
	renderer, err := export.RendererFor(format)
	if err != nil {
		return "", "", nil, appErrors.WithCause(appErrors.ErrValidation, err, "unsupported export format")
	}
	filter, err := s.reportFilter(query)
	if err != nil {
		return "", "", nil, err
	}
	rows, err := s.reportRows(ctx, filter)
	if err != nil {
		return "", "", nil, err
	}

	body, err = renderer.Render(reportDataset(rows, s.today()))
	if err != nil {
		return "", "", nil, appErrors.WithCause(appErrors.ErrInternal, err, "failed to render report")
	}
	filename = fmt.Sprintf("internships-%s.%s", s.today().Format("20060102"), renderer.Extension())
	return filename, renderer.ContentType(), body, nil
}

// Activity pages through recorded activity, newest first.
func (s *StaffService) Activity(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, *models.Pagination, error) {
	page, size := models.Normalize(filter.Page, filter.PageSize)
	filter.Page, filter.PageSize = page, size
	if s.activity == nil {
		return []models.ActivityLog{}, &models.Pagination{Page: page, PageSize: size}, nil
	}
	items, total, err := s.activity.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.WithCause(appErrors.ErrInternal, err, "failed to list activity")
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

func (s *StaffService) reportFilter(query dto.InternshipReportQuery) (models.InternshipFilter, error) {
	if err := s.validate(query, "invalid report filter"); err != nil {
		return models.InternshipFilter{}, err
	}
	filter := models.InternshipFilter{
		Status:         models.InternshipStatus(query.Status),
		PreferredMajor: strings.TrimSpace(query.PreferredMajor),
		Level:          models.InternshipLevel(query.Level),
		CompanyName:    strings.TrimSpace(query.CompanyName),
		Keyword:        strings.ToLower(strings.TrimSpace(query.Keyword)),
		SortBy:         query.SortBy,
		Page:           query.Page,
		PageSize:       query.PageSize,
	}
	if query.ClosingBefore != "" {
		before, err := time.Parse(dateLayout, query.ClosingBefore)
		if err != nil {
			return models.InternshipFilter{}, appErrors.WithCause(appErrors.ErrValidation, err, "invalid closing_before date")
		}
		filter.ClosingBefore = &before
	}
	if filter.SortBy == "" {
		filter.SortBy = models.SortByTitle
	}
	return filter, nil
}

func (s *StaffService) reportRows(ctx context.Context, filter models.InternshipFilter) ([]models.Internship, error) {
	all, err := s.store.ListInternships(ctx)
	if err != nil {
		return nil, appErrors.WithCause(appErrors.ErrInternal, err, "failed to list internships")
	}

	rows := make([]models.Internship, 0, len(all))
	for _, item := range all {
		if matchesReport(item, filter) {
			rows = append(rows, item)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if filter.SortBy == models.SortByClosingDate && !rows[i].ClosingDate.Equal(rows[j].ClosingDate) {
			return rows[i].ClosingDate.Before(rows[j].ClosingDate)
		}
		if rows[i].Title == rows[j].Title {
			return rows[i].ID < rows[j].ID
		}
		return rows[i].Title < rows[j].Title
	})
	return rows, nil
}

func matchesReport(item models.Internship, filter models.InternshipFilter) bool {
	if filter.Status != "" && item.Status != filter.Status {
		return false
	}
	if filter.PreferredMajor != "" && item.PreferredMajor != filter.PreferredMajor {
		return false
	}
	if filter.Level != "" && item.Level != filter.Level {
		return false
	}
	if filter.CompanyName != "" && !strings.EqualFold(item.CompanyName, filter.CompanyName) {
		return false
	}
	if filter.ClosingBefore != nil && item.ClosingDate.After(*filter.ClosingBefore) {
		return false
	}
	if filter.Keyword != "" {
		haystack := strings.ToLower(item.Title + " " + item.Description + " " + item.CompanyName)
		if !strings.Contains(haystack, filter.Keyword) {
			return false
		}
	}
	return true
}

var reportColumns = []export.Column{
	{Header: "ID", Weight: 2.2},
	{Header: "Title", Weight: 2.6},
	{Header: "Company", Weight: 1.6},
	{Header: "Level", Weight: 1.1},
	{Header: "Major", Weight: 1.8},
	{Header: "Opening", Weight: 1.1},
	{Header: "Closing", Weight: 1.1},
	{Header: "Slots", Weight: 0.7},
	{Header: "Status", Weight: 0.9},
	{Header: "Visible", Weight: 0.7},
}

func reportDataset(rows []models.Internship, today time.Time) export.Dataset {
	filled, total := 0, 0
	data := export.Dataset{Title: "Internship Report", Columns: reportColumns}
	for _, item := range rows {
		filled += item.FilledSlots
		total += item.NumSlots
		data.Rows = append(data.Rows, []string{
			item.ID,
			item.Title,
			item.CompanyName,
			string(item.Level),
			item.PreferredMajor,
			item.OpeningDate.Format(dateLayout),
			item.ClosingDate.Format(dateLayout),
			fmt.Sprintf("%d/%d", item.FilledSlots, item.NumSlots),
			string(item.Status),
			strconv.FormatBool(item.Visible),
		})
	}
	data.Subtitle = fmt.Sprintf("As of %s: %d internships, %d of %d slots filled", today.Format(dateLayout), len(rows), filled, total)
	return data
}
