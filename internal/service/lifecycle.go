package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/placement-api/internal/models"
	"github.com/noah-isme/placement-api/internal/repository"
	appErrors "github.com/noah-isme/placement-api/pkg/errors"
)

// Store is the entity store the lifecycle managers read from and commit to.
type Store interface {
	GetInternship(ctx context.Context, id string) (*models.Internship, error)
	ListInternships(ctx context.Context) ([]models.Internship, error)
	GetApplication(ctx context.Context, id string) (*models.Application, error)
	ListApplications(ctx context.Context) ([]models.Application, error)
	GetStudent(ctx context.Context, id string) (*models.Student, error)
	ListStudents(ctx context.Context) ([]models.Student, error)
	GetRepresentative(ctx context.Context, id string) (*models.CompanyRepresentative, error)
	ListRepresentatives(ctx context.Context) ([]models.CompanyRepresentative, error)
	GetStaff(ctx context.Context, id string) (*models.CareerCenterStaff, error)
	Apply(ctx context.Context, changes models.ChangeSet) error
}

// Persister receives every committed change set.
type Persister interface {
	Persist(ctx context.Context, changes models.ChangeSet) error
}

// ActivityRecorder is notified after state changes. It never influences decisions.
type ActivityRecorder interface {
	Record(ctx context.Context, entry models.ActivityLog) error
}

// Locker serializes work on entity keys.
type Locker interface {
	Lock(keys ...string) func()
}

// IDGenerator yields globally unique identifiers.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Sibling cancellation policies applied on acceptance.
const (
	SiblingPolicyPending              = "pending"
	SiblingPolicyPendingAndSuccessful = "pending_and_successful"
)

// LifecycleOptions carries the tunable placement rules.
type LifecycleOptions struct {
	SiblingPolicy          string
	AutoPublishOnApproval  bool
	MaxStudentApplications int
	MaxRepInternships      int
}

// Dependencies wires the collaborators shared by the lifecycle services.
type Dependencies struct {
	Store     Store
	Persister Persister
	Recorder  ActivityRecorder
	Locker    Locker
	Cache     *DiscoveryCache
	Metrics   *MetricsService
	IDs       IDGenerator
	Clock     Clock
	Validator *validator.Validate
	Logger    *zap.Logger
	Options   LifecycleOptions
}

type noopLocker struct{}

func (noopLocker) Lock(...string) func() { return func() {} }

// engine holds what every manager needs to load, validate and commit.
type engine struct {
	store     Store
	persister Persister
	recorder  ActivityRecorder
	locks     Locker
	cache     *DiscoveryCache
	metrics   *MetricsService
	ids       IDGenerator
	now       Clock
	validator *validator.Validate
	logger    *zap.Logger
	opts      LifecycleOptions
}

func newEngine(deps Dependencies) *engine {
	e := &engine{
		store:     deps.Store,
		persister: deps.Persister,
		recorder:  deps.Recorder,
		locks:     deps.Locker,
		cache:     deps.Cache,
		metrics:   deps.Metrics,
		ids:       deps.IDs,
		now:       deps.Clock,
		validator: deps.Validator,
		logger:    deps.Logger,
		opts:      deps.Options,
	}
	if e.persister == nil {
		e.persister = NopPersister{}
	}
	if e.locks == nil {
		e.locks = noopLocker{}
	}
	if e.ids == nil {
		e.ids = uuid.NewString
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.validator == nil {
		e.validator = validator.New()
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.opts.SiblingPolicy != SiblingPolicyPendingAndSuccessful {
		e.opts.SiblingPolicy = SiblingPolicyPending
	}
	if e.opts.MaxStudentApplications <= 0 {
		e.opts.MaxStudentApplications = models.MaxStudentApplications
	}
	if e.opts.MaxRepInternships <= 0 {
		e.opts.MaxRepInternships = models.MaxRepresentativePostings
	}
	return e
}

func (e *engine) today() time.Time {
	return models.Day(e.now())
}

// commit writes the change set to the store, then signals persistence, audit and cache.
// Only the store write can fail the operation.
func (e *engine) commit(ctx context.Context, changes models.ChangeSet, entries ...models.ActivityLog) error {
	if err := e.store.Apply(ctx, changes); err != nil {
		return appErrors.WithCause(appErrors.ErrInternal, err, "failed to save changes")
	}

	if err := e.persister.Persist(ctx, changes); err != nil {
		e.logger.Warn("persist signal failed", zap.Error(err))
	}

	e.record(ctx, entries...)

	if len(changes.Internships) > 0 || len(changes.RemovedInternshipIDs) > 0 {
		e.metrics.ObserveFilledSlots(changes.Internships)
		for _, id := range changes.RemovedInternshipIDs {
			e.metrics.ForgetInternship(id)
		}
		if err := e.cache.Purge(ctx); err != nil {
			e.logger.Warn("discovery cache invalidation failed", zap.Error(err))
		}
	}
	return nil
}

// record stamps and forwards activity entries. Failures are logged only.
func (e *engine) record(ctx context.Context, entries ...models.ActivityLog) {
	now := e.now().UTC()
	for _, entry := range entries {
		entry.ID = e.ids()
		entry.CreatedAt = now
		e.logger.Info("activity",
			zap.String("action", string(entry.Action)),
			zap.String("actor_id", entry.ActorID),
			zap.String("entity_id", entry.RelatedEntityID),
		)
		if e.recorder == nil {
			continue
		}
		if err := e.recorder.Record(ctx, entry); err != nil {
			e.logger.Warn("activity record failed", zap.String("action", string(entry.Action)), zap.Error(err))
		}
	}
}

// observe counts the outcome of an operation and passes err through.
func (e *engine) observe(operation string, err error) error {
	e.metrics.ObserveOperation(operation, err)
	if err != nil && appErrors.FromError(err).Status >= 500 {
		e.logger.Error("operation failed", zap.String("operation", operation), zap.Error(err))
	}
	return err
}

func (e *engine) validate(payload interface{}, message string) error {
	if err := e.validator.Struct(payload); err != nil {
		return appErrors.WithCause(appErrors.ErrValidation, err, message)
	}
	return nil
}

func activity(actorID string, role models.UserRole, action models.ActivityAction, entityID, description string) models.ActivityLog {
	return models.ActivityLog{
		ActorID:         actorID,
		ActorRole:       role,
		Action:          action,
		Description:     description,
		RelatedEntityID: entityID,
	}
}

func lookupError(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return appErrors.Clone(appErrors.ErrNotFound, what+" not found")
	}
	return appErrors.WithCause(appErrors.ErrInternal, err, "failed to load "+what)
}

func (e *engine) loadInternship(ctx context.Context, id string) (*models.Internship, error) {
	item, err := e.store.GetInternship(ctx, id)
	if err != nil {
		return nil, lookupError(err, "internship")
	}
	return item, nil
}

func (e *engine) loadApplication(ctx context.Context, id string) (*models.Application, error) {
	item, err := e.store.GetApplication(ctx, id)
	if err != nil {
		return nil, lookupError(err, "application")
	}
	return item, nil
}

func (e *engine) loadStudent(ctx context.Context, id string) (*models.Student, error) {
	item, err := e.store.GetStudent(ctx, id)
	if err != nil {
		return nil, lookupError(err, "student")
	}
	return item, nil
}

func (e *engine) loadRepresentative(ctx context.Context, id string) (*models.CompanyRepresentative, error) {
	item, err := e.store.GetRepresentative(ctx, id)
	if err != nil {
		return nil, lookupError(err, "representative")
	}
	return item, nil
}

// approvedRepresentative loads the caller and rejects unapproved representatives.
func (e *engine) approvedRepresentative(ctx context.Context, id string) (*models.CompanyRepresentative, error) {
	rep, err := e.loadRepresentative(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rep.Approved {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "representative not approved")
	}
	return rep, nil
}

func (e *engine) loadStaff(ctx context.Context, id string) (*models.CareerCenterStaff, error) {
	item, err := e.store.GetStaff(ctx, id)
	if err != nil {
		return nil, lookupError(err, "staff")
	}
	return item, nil
}

// ownedApplication loads an application and hides it from anyone but its student.
func (e *engine) ownedApplication(ctx context.Context, studentID, applicationID string) (*models.Application, error) {
	app, err := e.loadApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.StudentID != studentID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
	}
	return app, nil
}

// peekApplication resolves the lock keys for an application without failing.
func (e *engine) peekApplication(ctx context.Context, id string) *models.Application {
	app, err := e.store.GetApplication(ctx, id)
	if err != nil {
		return nil
	}
	return app
}
