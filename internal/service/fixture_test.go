package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/placement-api/internal/dto"
	"github.com/noah-isme/placement-api/internal/models"
	"github.com/noah-isme/placement-api/internal/repository"
	appErrors "github.com/noah-isme/placement-api/pkg/errors"
	"github.com/noah-isme/placement-api/pkg/keylock"
)

var fixtureNow = time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)

type recordingPersister struct {
	mu   sync.Mutex
	sets []models.ChangeSet
}

func (p *recordingPersister) Persist(_ context.Context, changes models.ChangeSet) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sets = append(p.sets, changes)
	return nil
}

func (p *recordingPersister) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sets)
}

type recordingRecorder struct {
	mu      sync.Mutex
	entries []models.ActivityLog
	err     error
}

func (r *recordingRecorder) Record(_ context.Context, entry models.ActivityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return r.err
}

func (r *recordingRecorder) actions() []models.ActivityAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.ActivityAction, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, entry.Action)
	}
	return out
}

type mapCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string][]byte)}
}

func (c *mapCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *mapCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = raw
	return nil
}

func (c *mapCache) Incr(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	if raw, ok := c.entries[key]; ok {
		if err := json.Unmarshal(raw, &n); err != nil {
			return 0, err
		}
	}
	n++
	raw, err := json.Marshal(n)
	if err != nil {
		return 0, err
	}
	c.entries[key] = raw
	return n, nil
}

// listings counts cached discovery listings, ignoring the generation counter.
func (c *mapCache) listings() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for key := range c.entries {
		if strings.HasPrefix(key, "discovery:") {
			n++
		}
	}
	return n
}

func (c *mapCache) DeleteByPattern(_ context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}

type fixture struct {
	store     *repository.MemoryStore
	persister *recordingPersister
	recorder  *recordingRecorder
	metrics   *MetricsService
	deps      Dependencies

	apps  *ApplicationService
	reps  *RepresentativeService
	staff *StaffService
	auth  *AuthService
}

func sequentialIDs() IDGenerator {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%03d", n)
	}
}

func newFixture(t *testing.T, opts LifecycleOptions) *fixture {
	t.Helper()

	f := &fixture{
		store:     repository.NewMemoryStore(),
		persister: &recordingPersister{},
		recorder:  &recordingRecorder{},
		metrics:   NewMetricsService(),
	}
	f.deps = Dependencies{
		Store:     f.store,
		Persister: f.persister,
		Recorder:  f.recorder,
		Locker:    keylock.New(),
		Metrics:   f.metrics,
		IDs:       sequentialIDs(),
		Clock:     func() time.Time { return fixtureNow },
		Logger:    zap.NewNop(),
		Options:   opts,
	}
	f.apps = NewApplicationService(f.deps)
	f.reps = NewRepresentativeService(f.deps)
	f.staff = NewStaffService(f.deps, nil)
	f.auth = NewAuthService(f.deps, AuthConfig{AccessTokenSecret: "test-secret", AccessTokenExpiry: time.Hour, Issuer: "test", BcryptCost: bcrypt.MinCost})

	f.seed(t, models.ChangeSet{
		Students: []models.Student{
			{ID: "s1", Name: "Year One", YearOfStudy: 1, Major: "Computer Science"},
			{ID: "s2", Name: "Year Two", YearOfStudy: 2, Major: "Computer Science"},
			{ID: "s3", Name: "Year Three", YearOfStudy: 3, Major: "Computer Science"},
			{ID: "art", Name: "Painter", YearOfStudy: 3, Major: "Art"},
		},
		Representatives: []models.CompanyRepresentative{
			{ID: "r1", Name: "Rep One", CompanyName: "Acme", Approved: true},
			{ID: "r2", Name: "Rep Two", CompanyName: "Globex", Approved: true},
			{ID: "r9", Name: "Rep Pending", CompanyName: "Initech"},
		},
		Staff: []models.CareerCenterStaff{{ID: "st1", Name: "Staff", Department: "Career Center"}},
	})
	return f
}

func (f *fixture) seed(t *testing.T, changes models.ChangeSet) {
	t.Helper()
	require.NoError(t, f.store.Apply(context.Background(), changes))
}

func createRequest(title string, level models.InternshipLevel, slots int) dto.CreateInternshipRequest {
	return dto.CreateInternshipRequest{
		Title:          title,
		Description:    title + " description",
		Level:          level,
		PreferredMajor: "Computer Science",
		OpeningDate:    "2025-01-15",
		ClosingDate:    "2025-03-01",
		NumSlots:       slots,
	}
}

// publish creates a posting, has staff approve it and makes it visible.
func (f *fixture) publish(t *testing.T, repID, title string, level models.InternshipLevel, slots int) *models.Internship {
	t.Helper()
	ctx := context.Background()

	item, err := f.reps.CreateInternship(ctx, repID, createRequest(title, level, slots))
	require.NoError(t, err)
	_, err = f.staff.DecideInternship(ctx, "st1", item.ID, dto.DecisionRequest{Approve: boolPtr(true)})
	require.NoError(t, err)
	item, err = f.reps.ToggleVisibility(ctx, repID, item.ID)
	require.NoError(t, err)
	require.True(t, item.Visible)
	return item
}

// successful applies and has the owning representative approve the application.
func (f *fixture) successful(t *testing.T, studentID string, item *models.Internship) *models.Application {
	t.Helper()
	ctx := context.Background()

	app, err := f.apps.Apply(ctx, studentID, dto.ApplyRequest{InternshipID: item.ID})
	require.NoError(t, err)
	app, err = f.reps.ReviewApplication(ctx, item.RepresentativeID, app.ID, dto.ReviewApplicationRequest{Approve: boolPtr(true)})
	require.NoError(t, err)
	return app
}

func (f *fixture) internship(t *testing.T, id string) *models.Internship {
	t.Helper()
	item, err := f.store.GetInternship(context.Background(), id)
	require.NoError(t, err)
	return item
}

func (f *fixture) application(t *testing.T, id string) *models.Application {
	t.Helper()
	app, err := f.store.GetApplication(context.Background(), id)
	require.NoError(t, err)
	return app
}

func (f *fixture) student(t *testing.T, id string) *models.Student {
	t.Helper()
	student, err := f.store.GetStudent(context.Background(), id)
	require.NoError(t, err)
	return student
}

func boolPtr(v bool) *bool { return &v }

func strPtr(v string) *string { return &v }
