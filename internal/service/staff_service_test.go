package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/placement-api/internal/dto"
	"github.com/noah-isme/placement-api/internal/models"
	appErrors "github.com/noah-isme/placement-api/pkg/errors"
)

func TestDecideInternshipRequiresPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, LifecycleOptions{})
	item, err := f.reps.CreateInternship(ctx, "r1", createRequest("Decide", models.LevelBasic, 1))
	require.NoError(t, err)

	got, err := f.staff.DecideInternship(ctx, "st1", item.ID, dto.DecisionRequest{Approve: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, models.InternshipApproved, got.Status)
	assert.False(t, got.Visible, "approval alone does not publish")

	_, err = f.staff.DecideInternship(ctx, "st1", item.ID, dto.DecisionRequest{Approve: boolPtr(false)})
	assert.True(t, appErrors.Is(err, appErrors.ErrPreconditionFailed))

	_, err = f.staff.DecideInternship(ctx, "r1", item.ID, dto.DecisionRequest{Approve: boolPtr(true)})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound), "caller must be staff")

	rejected, err := f.reps.CreateInternship(ctx, "r1", createRequest("Reject", models.LevelBasic, 1))
	require.NoError(t, err)
	got, err = f.staff.DecideInternship(ctx, "st1", rejected.ID, dto.DecisionRequest{Approve: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, models.InternshipRejected, got.Status)
}

func TestDecideInternshipAutoPublish(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, LifecycleOptions{AutoPublishOnApproval: true})

	inWindow, err := f.reps.CreateInternship(ctx, "r1", createRequest("Now", models.LevelBasic, 1))
	require.NoError(t, err)
	got, err := f.staff.DecideInternship(ctx, "st1", inWindow.ID, dto.DecisionRequest{Approve: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, got.Visible)

	later := createRequest("Later", models.LevelBasic, 1)
	later.OpeningDate, later.ClosingDate = "2025-06-01", "2025-07-01"
	upcoming, err := f.reps.CreateInternship(ctx, "r1", later)
	require.NoError(t, err)
	got, err = f.staff.DecideInternship(ctx, "st1", upcoming.ID, dto.DecisionRequest{Approve: boolPtr(true)})
	require.NoError(t, err)
	assert.False(t, got.Visible)
}

func TestDecideRegistration(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, LifecycleOptions{})
	f.seed(t, models.ChangeSet{Representatives: []models.CompanyRepresentative{{ID: "r8", Name: "Doomed", CompanyName: "Umbrella"}}})

	pending, err := f.staff.PendingRegistrations(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	rep, err := f.staff.DecideRegistration(ctx, "st1", "r9", dto.DecisionRequest{Approve: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, rep.Approved)

	_, err = f.staff.DecideRegistration(ctx, "st1", "r9", dto.DecisionRequest{Approve: boolPtr(true)})
	assert.True(t, appErrors.Is(err, appErrors.ErrPreconditionFailed))

	_, err = f.staff.DecideRegistration(ctx, "st1", "r8", dto.DecisionRequest{Approve: boolPtr(false)})
	require.NoError(t, err)
	_, err = f.store.GetRepresentative(ctx, "r8")
	assert.Error(t, err)

	pending, err = f.staff.PendingRegistrations(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Contains(t, f.recorder.actions(), models.ActionRegistrationRejected)
}

func TestPlacementRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, LifecycleOptions{})

	item := f.publish(t, "r1", "Round Trip", models.LevelBasic, 1)
	app := f.successful(t, "s1", item)

	_, err := f.apps.AcceptPlacement(ctx, "s1", app.ID)
	require.NoError(t, err)
	posting := f.internship(t, item.ID)
	assert.Equal(t, models.InternshipFilled, posting.Status)
	assert.Equal(t, 1, posting.FilledSlots)

	_, err = f.apps.RequestWithdrawal(ctx, "s1", app.ID, dto.WithdrawalRequest{Reason: "moving abroad"})
	require.NoError(t, err)

	queue, err := f.staff.PendingWithdrawals(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, "Year One", queue[0].StudentName)
	assert.Equal(t, "Round Trip", queue[0].InternshipTitle)

	got, err := f.staff.ApproveWithdrawal(ctx, "st1", app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationWithdrawn, got.Status)
	assert.False(t, got.WithdrawalRequested)
	assert.True(t, got.Confirmed)

	posting = f.internship(t, item.ID)
	assert.Equal(t, models.InternshipApproved, posting.Status)
	assert.Equal(t, 0, posting.FilledSlots)
	assert.Nil(t, f.student(t, "s1").AcceptedInternshipID)

	_, err = f.staff.ApproveWithdrawal(ctx, "st1", app.ID)
	assert.True(t, appErrors.Is(err, appErrors.ErrPreconditionFailed))

	assert.Equal(t, []models.ActivityAction{
		models.ActionInternshipCreated,
		models.ActionInternshipApproved,
		models.ActionVisibilityToggled,
		models.ActionApplicationSubmitted,
		models.ActionApplicationReviewed,
		models.ActionPlacementAccepted,
		models.ActionWithdrawalRequested,
		models.ActionWithdrawalApproved,
	}, f.recorder.actions())
}

func TestApproveWithdrawalUnconfirmedLeavesSlots(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, LifecycleOptions{})
	item := f.publish(t, "r1", "Unconfirmed", models.LevelBasic, 2)
	app, err := f.apps.Apply(ctx, "s1", dto.ApplyRequest{InternshipID: item.ID})
	require.NoError(t, err)
	_, err = f.apps.RequestWithdrawal(ctx, "s1", app.ID, dto.WithdrawalRequest{})
	require.NoError(t, err)

	_, err = f.staff.ApproveWithdrawal(ctx, "st1", app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationWithdrawn, f.application(t, app.ID).Status)
	assert.Equal(t, 0, f.internship(t, item.ID).FilledSlots)

	_, err = f.apps.RequestWithdrawal(ctx, "s1", app.ID, dto.WithdrawalRequest{})
	assert.True(t, appErrors.Is(err, appErrors.ErrPreconditionFailed), "withdrawn applications cannot request again")
}

func TestRejectWithdrawalClearsRequestOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, LifecycleOptions{})
	item := f.publish(t, "r1", "Stay", models.LevelBasic, 1)
	app := f.successful(t, "s1", item)
	_, err := f.apps.AcceptPlacement(ctx, "s1", app.ID)
	require.NoError(t, err)
	_, err = f.apps.RequestWithdrawal(ctx, "s1", app.ID, dto.WithdrawalRequest{})
	require.NoError(t, err)

	got, err := f.staff.RejectWithdrawal(ctx, "st1", app.ID)
	require.NoError(t, err)
	assert.False(t, got.WithdrawalRequested)
	assert.Nil(t, got.WithdrawalReason)
	assert.Equal(t, models.ApplicationSuccessful, got.Status)
	assert.Equal(t, 1, f.internship(t, item.ID).FilledSlots)

	_, err = f.staff.RejectWithdrawal(ctx, "st1", app.ID)
	assert.True(t, appErrors.Is(err, appErrors.ErrPreconditionFailed))
}

func TestPendingInternships(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, LifecycleOptions{})
	f.publish(t, "r1", "Live", models.LevelBasic, 1)
	waiting, err := f.reps.CreateInternship(ctx, "r2", createRequest("Waiting", models.LevelBasic, 1))
	require.NoError(t, err)

	pending, err := f.staff.PendingInternships(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, waiting.ID, pending[0].ID)
}

func seedReport(t *testing.T, f *fixture) {
	t.Helper()
	day := func(m time.Month, d int) time.Time { return time.Date(2025, m, d, 0, 0, 0, 0, time.UTC) }
	f.seed(t, models.ChangeSet{Internships: []models.Internship{
		{ID: "i1", Title: "Cloud Ops", Description: "kubernetes", CompanyName: "Acme", Level: models.LevelAdvanced, PreferredMajor: "Computer Science", OpeningDate: day(1, 1), ClosingDate: day(5, 1), NumSlots: 2, Status: models.InternshipApproved},
		{ID: "i2", Title: "Audit Trainee", Description: "ledgers", CompanyName: "Globex", Level: models.LevelBasic, PreferredMajor: "Accounting", OpeningDate: day(1, 1), ClosingDate: day(3, 1), NumSlots: 1, Status: models.InternshipPending},
		{ID: "i3", Title: "Backend", Description: "Go services", CompanyName: "acme", Level: models.LevelBasic, PreferredMajor: "Computer Science", OpeningDate: day(1, 1), ClosingDate: day(2, 10), NumSlots: 1, FilledSlots: 1, Status: models.InternshipFilled},
	}})
}

func TestReportFiltersSortsAndPaginates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, LifecycleOptions{})
	seedReport(t, f)

	rows, page, err := f.staff.Report(ctx, dto.InternshipReportQuery{})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalCount)
	assert.Equal(t, []string{"i2", "i3", "i1"}, ids(rows))

	rows, _, err = f.staff.Report(ctx, dto.InternshipReportQuery{SortBy: "closing_date"})
	require.NoError(t, err)
	assert.Equal(t, []string{"i3", "i2", "i1"}, ids(rows))

	rows, _, err = f.staff.Report(ctx, dto.InternshipReportQuery{CompanyName: "ACME"})
	require.NoError(t, err)
	assert.Equal(t, []string{"i3", "i1"}, ids(rows))

	rows, _, err = f.staff.Report(ctx, dto.InternshipReportQuery{Keyword: "GO"})
	require.NoError(t, err)
	assert.Equal(t, []string{"i3"}, ids(rows))

	rows, _, err = f.staff.Report(ctx, dto.InternshipReportQuery{Status: "Approved", Level: "Advanced", PreferredMajor: "Computer Science"})
	require.NoError(t, err)
	assert.Equal(t, []string{"i1"}, ids(rows))

	rows, _, err = f.staff.Report(ctx, dto.InternshipReportQuery{ClosingBefore: "2025-03-01"})
	require.NoError(t, err)
	assert.Equal(t, []string{"i2", "i3"}, ids(rows))

	rows, page, err = f.staff.Report(ctx, dto.InternshipReportQuery{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"i1"}, ids(rows))
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 3, page.TotalCount)

	_, _, err = f.staff.Report(ctx, dto.InternshipReportQuery{Status: "Archived"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestExportReport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, LifecycleOptions{})
	seedReport(t, f)

	name, contentType, body, err := f.staff.ExportReport(ctx, dto.InternshipReportQuery{Status: "Filled"})
	require.NoError(t, err)
	assert.Equal(t, "internships-20250201.csv", name)
	assert.Equal(t, "text/csv", contentType)
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ID,Title,Company"))
	assert.Contains(t, lines[1], "Backend")
	assert.Contains(t, lines[1], "1/1")

	name, contentType, body, err = f.staff.ExportReport(ctx, dto.InternshipReportQuery{Format: "pdf"})
	require.NoError(t, err)
	assert.Equal(t, "internships-20250201.pdf", name)
	assert.Equal(t, "application/pdf", contentType)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))

	_, _, _, err = f.staff.ExportReport(ctx, dto.InternshipReportQuery{Format: "xlsx"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

type stubActivityReader struct {
	filter models.ActivityFilter
	items  []models.ActivityLog
	err    error
}

func (s *stubActivityReader) List(_ context.Context, filter models.ActivityFilter) ([]models.ActivityLog, int, error) {
	s.filter = filter
	return s.items, len(s.items), s.err
}

func TestActivityListing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, LifecycleOptions{})

	items, page, err := f.staff.Activity(ctx, models.ActivityFilter{})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, models.DefaultPageSize, page.PageSize)

	reader := &stubActivityReader{items: []models.ActivityLog{{ID: "a1", Action: models.ActionLogin}}}
	staff := NewStaffService(f.deps, reader)
	items, page, err = staff.Activity(ctx, models.ActivityFilter{ActorID: "s1", PageSize: 500})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, page.TotalCount)
	assert.Equal(t, models.MaxPageSize, reader.filter.PageSize)
	assert.Equal(t, "s1", reader.filter.ActorID)

	reader.err = errors.New("db down")
	_, _, err = staff.Activity(ctx, models.ActivityFilter{})
	assert.True(t, appErrors.Is(err, appErrors.ErrInternal))
}

type failingStore struct {
	Store
	err error
}

func (s failingStore) Apply(context.Context, models.ChangeSet) error { return s.err }

func TestCommitFailureLeavesNoSideEffects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, LifecycleOptions{})
	item, err := f.reps.CreateInternship(ctx, "r1", createRequest("Broken", models.LevelBasic, 1))
	require.NoError(t, err)
	persisted := f.persister.count()
	recorded := len(f.recorder.actions())

	deps := f.deps
	deps.Store = failingStore{Store: f.store, err: errors.New("disk full")}
	staff := NewStaffService(deps, nil)

	_, err = staff.DecideInternship(ctx, "st1", item.ID, dto.DecisionRequest{Approve: boolPtr(true)})
	assert.True(t, appErrors.Is(err, appErrors.ErrInternal))
	assert.Equal(t, models.InternshipPending, f.internship(t, item.ID).Status)
	assert.Equal(t, persisted, f.persister.count())
	assert.Len(t, f.recorder.actions(), recorded)
}

func TestRecorderFailureDoesNotFailOperation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, LifecycleOptions{})
	f.recorder.err = errors.New("audit offline")

	_, err := f.reps.CreateInternship(ctx, "r1", createRequest("Still works", models.LevelBasic, 1))
	assert.NoError(t, err)
}

func TestOperationOutcomesAreCounted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, LifecycleOptions{})
	_, err := f.reps.CreateInternship(ctx, "r1", createRequest("Counted", models.LevelBasic, 1))
	require.NoError(t, err)
	_, err = f.reps.CreateInternship(ctx, "r9", createRequest("Denied", models.LevelBasic, 1))
	require.Error(t, err)

	ops := f.metrics.Snapshot().Operations
	assert.Equal(t, uint64(1), ops["create_internship:ok"])
	assert.Equal(t, uint64(1), ops["create_internship:FORBIDDEN"])
}

func ids(items []models.Internship) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}
