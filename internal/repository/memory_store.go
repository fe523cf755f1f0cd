package repository

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/noah-isme/placement-api/internal/models"
)

// ErrNotFound is returned when an entity lookup misses.
var ErrNotFound = errors.New("entity not found")

// MemoryStore is the in-memory entity store. Reads hand out copies so callers
// can mutate freely and commit through Apply.
type MemoryStore struct {
	mu              sync.RWMutex
	internships     map[string]models.Internship
	applications    map[string]models.Application
	students        map[string]models.Student
	representatives map[string]models.CompanyRepresentative
	staff           map[string]models.CareerCenterStaff
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		internships:     make(map[string]models.Internship),
		applications:    make(map[string]models.Application),
		students:        make(map[string]models.Student),
		representatives: make(map[string]models.CompanyRepresentative),
		staff:           make(map[string]models.CareerCenterStaff),
	}
}

// GetInternship returns a copy of the internship.
func (s *MemoryStore) GetInternship(ctx context.Context, id string) (*models.Internship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.internships[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := item.Clone()
	return &clone, nil
}

// ListInternships returns every internship ordered by creation time.
func (s *MemoryStore) ListInternships(ctx context.Context) ([]models.Internship, error) {
	s.mu.RLock()
	out := make([]models.Internship, 0, len(s.internships))
	for _, item := range s.internships {
		out = append(out, item.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// GetApplication returns a copy of the application.
func (s *MemoryStore) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.applications[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := item.Clone()
	return &clone, nil
}

// ListApplications returns every application ordered by creation time.
func (s *MemoryStore) ListApplications(ctx context.Context) ([]models.Application, error) {
	s.mu.RLock()
	out := make([]models.Application, 0, len(s.applications))
	for _, item := range s.applications {
		out = append(out, item.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// GetStudent returns a copy of the student.
func (s *MemoryStore) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.students[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := item.Clone()
	return &clone, nil
}

// ListStudents returns every student ordered by ID.
func (s *MemoryStore) ListStudents(ctx context.Context) ([]models.Student, error) {
	s.mu.RLock()
	out := make([]models.Student, 0, len(s.students))
	for _, item := range s.students {
		out = append(out, item.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetRepresentative returns a copy of the representative.
func (s *MemoryStore) GetRepresentative(ctx context.Context, id string) (*models.CompanyRepresentative, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.representatives[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := item.Clone()
	return &clone, nil
}

// ListRepresentatives returns every representative ordered by ID.
func (s *MemoryStore) ListRepresentatives(ctx context.Context) ([]models.CompanyRepresentative, error) {
	s.mu.RLock()
	out := make([]models.CompanyRepresentative, 0, len(s.representatives))
	for _, item := range s.representatives {
		out = append(out, item.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetStaff returns a copy of the staff member.
func (s *MemoryStore) GetStaff(ctx context.Context, id string) (*models.CareerCenterStaff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.staff[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &item, nil
}

// ListStaff returns every staff member ordered by ID.
func (s *MemoryStore) ListStaff(ctx context.Context) ([]models.CareerCenterStaff, error) {
	s.mu.RLock()
	out := make([]models.CareerCenterStaff, 0, len(s.staff))
	for _, item := range s.staff {
		out = append(out, item)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Apply commits a change set atomically. Removals run after upserts.
func (s *MemoryStore) Apply(ctx context.Context, changes models.ChangeSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range changes.Internships {
		s.internships[item.ID] = item.Clone()
	}
	for _, item := range changes.Applications {
		s.applications[item.ID] = item.Clone()
	}
	for _, item := range changes.Students {
		s.students[item.ID] = item.Clone()
	}
	for _, item := range changes.Representatives {
		s.representatives[item.ID] = item.Clone()
	}
	for _, item := range changes.Staff {
		s.staff[item.ID] = item
	}
	for _, id := range changes.RemovedInternshipIDs {
		delete(s.internships, id)
	}
	for _, id := range changes.RemovedRepresentativeIDs {
		delete(s.representatives, id)
	}
	return nil
}

// Counts reports how many entities of each kind are held.
func (s *MemoryStore) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]int{
		"internships":     len(s.internships),
		"applications":    len(s.applications),
		"students":        len(s.students),
		"representatives": len(s.representatives),
		"staff":           len(s.staff),
	}
}
