package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/placement-api/internal/models"
)

func TestMemoryStoreApplyAndGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Apply(ctx, models.ChangeSet{
		Internships: []models.Internship{{ID: "int-1", Title: "Backend", ApplicationIDs: []string{"app-1"}}},
		Students:    []models.Student{{ID: "stu-1", Name: "Sam"}},
		Staff:       []models.CareerCenterStaff{{ID: "staff-1"}},
	}))

	internship, err := store.GetInternship(ctx, "int-1")
	require.NoError(t, err)
	assert.Equal(t, "Backend", internship.Title)

	internship.ApplicationIDs[0] = "mutated"
	again, err := store.GetInternship(ctx, "int-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"app-1"}, again.ApplicationIDs, "reads must not alias stored state")

	_, err = store.GetStudent(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	staff, err := store.GetStaff(ctx, "staff-1")
	require.NoError(t, err)
	assert.Equal(t, "staff-1", staff.ID)
}

func TestMemoryStoreRemovals(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Apply(ctx, models.ChangeSet{
		Internships:     []models.Internship{{ID: "int-1"}},
		Representatives: []models.CompanyRepresentative{{ID: "rep-1"}},
	}))
	require.NoError(t, store.Apply(ctx, models.ChangeSet{
		RemovedInternshipIDs:     []string{"int-1"},
		RemovedRepresentativeIDs: []string{"rep-1"},
	}))

	_, err := store.GetInternship(ctx, "int-1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.GetRepresentative(ctx, "rep-1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, store.Counts()["internships"])
}

func TestMemoryStoreListOrdering(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Apply(ctx, models.ChangeSet{
		Internships: []models.Internship{
			{ID: "b", CreatedAt: base.Add(time.Hour)},
			{ID: "a", CreatedAt: base.Add(time.Hour)},
			{ID: "c", CreatedAt: base},
		},
		Applications: []models.Application{
			{ID: "app-2", CreatedAt: base.Add(time.Minute)},
			{ID: "app-1", CreatedAt: base},
		},
		Students: []models.Student{{ID: "s2"}, {ID: "s1"}},
	}))

	internships, err := store.ListInternships(ctx)
	require.NoError(t, err)
	require.Len(t, internships, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{internships[0].ID, internships[1].ID, internships[2].ID})

	applications, err := store.ListApplications(ctx)
	require.NoError(t, err)
	assert.Equal(t, "app-1", applications[0].ID)

	students, err := store.ListStudents(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s1", students[0].ID)
}

func TestMemoryStoreApplyHonoursCancelledContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Apply(ctx, models.ChangeSet{Students: []models.Student{{ID: "s1"}}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, store.Counts()["students"])
}
