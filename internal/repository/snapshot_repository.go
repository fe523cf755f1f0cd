package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/placement-api/internal/models"
)

type internshipRow struct {
	models.Internship
	ApplicationIDs pq.StringArray `db:"application_ids"`
}

type studentRow struct {
	models.Student
	ApplicationIDs pq.StringArray `db:"application_ids"`
}

type representativeRow struct {
	models.CompanyRepresentative
	InternshipIDs pq.StringArray `db:"internship_ids"`
}

const (
	upsertInternshipQuery = `INSERT INTO internships (id, title, description, level, preferred_major, opening_date, closing_date, company_name, representative_id, num_slots, filled_slots, visible, status, application_ids, created_at, updated_at)
VALUES (:id, :title, :description, :level, :preferred_major, :opening_date, :closing_date, :company_name, :representative_id, :num_slots, :filled_slots, :visible, :status, :application_ids, :created_at, :updated_at)
ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, description = EXCLUDED.description, level = EXCLUDED.level, preferred_major = EXCLUDED.preferred_major, opening_date = EXCLUDED.opening_date, closing_date = EXCLUDED.closing_date, num_slots = EXCLUDED.num_slots, filled_slots = EXCLUDED.filled_slots, visible = EXCLUDED.visible, status = EXCLUDED.status, application_ids = EXCLUDED.application_ids, updated_at = EXCLUDED.updated_at`

	upsertApplicationQuery = `INSERT INTO internship_applications (id, student_id, internship_id, status, confirmed, withdrawal_requested, withdrawal_reason, created_at, updated_at)
VALUES (:id, :student_id, :internship_id, :status, :confirmed, :withdrawal_requested, :withdrawal_reason, :created_at, :updated_at)
ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, confirmed = EXCLUDED.confirmed, withdrawal_requested = EXCLUDED.withdrawal_requested, withdrawal_reason = EXCLUDED.withdrawal_reason, updated_at = EXCLUDED.updated_at`

	upsertStudentQuery = `INSERT INTO students (id, name, year_of_study, major, password_hash, application_ids, accepted_internship_id)
VALUES (:id, :name, :year_of_study, :major, :password_hash, :application_ids, :accepted_internship_id)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, year_of_study = EXCLUDED.year_of_study, major = EXCLUDED.major, password_hash = EXCLUDED.password_hash, application_ids = EXCLUDED.application_ids, accepted_internship_id = EXCLUDED.accepted_internship_id`

	upsertRepresentativeQuery = `INSERT INTO company_representatives (id, name, company_name, department, position, approved, password_hash, internship_ids)
VALUES (:id, :name, :company_name, :department, :position, :approved, :password_hash, :internship_ids)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, company_name = EXCLUDED.company_name, department = EXCLUDED.department, position = EXCLUDED.position, approved = EXCLUDED.approved, password_hash = EXCLUDED.password_hash, internship_ids = EXCLUDED.internship_ids`

	upsertStaffQuery = `INSERT INTO career_center_staff (id, name, department, password_hash)
VALUES (:id, :name, :department, :password_hash)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, department = EXCLUDED.department, password_hash = EXCLUDED.password_hash`

	deleteInternshipsQuery     = `DELETE FROM internships WHERE id = ANY($1)`
	deleteRepresentativesQuery = `DELETE FROM company_representatives WHERE id = ANY($1)`
)

// SnapshotRepository mirrors the in-memory entity store into PostgreSQL.
type SnapshotRepository struct {
	db *sqlx.DB
}

// NewSnapshotRepository constructs the repository.
func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Save upserts every entity in the change set and applies removals in one transaction.
func (r *SnapshotRepository) Save(ctx context.Context, changes models.ChangeSet) (err error) {
	if changes.Empty() {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, item := range changes.Internships {
		row := internshipRow{Internship: item, ApplicationIDs: pq.StringArray(nonNil(item.ApplicationIDs))}
		if _, err = tx.NamedExecContext(ctx, upsertInternshipQuery, row); err != nil {
			return fmt.Errorf("upsert internship %s: %w", item.ID, err)
		}
	}
	for _, item := range changes.Applications {
		if _, err = tx.NamedExecContext(ctx, upsertApplicationQuery, item); err != nil {
			return fmt.Errorf("upsert application %s: %w", item.ID, err)
		}
	}
	for _, item := range changes.Students {
		row := studentRow{Student: item, ApplicationIDs: pq.StringArray(nonNil(item.ApplicationIDs))}
		if _, err = tx.NamedExecContext(ctx, upsertStudentQuery, row); err != nil {
			return fmt.Errorf("upsert student %s: %w", item.ID, err)
		}
	}
	for _, item := range changes.Representatives {
		row := representativeRow{CompanyRepresentative: item, InternshipIDs: pq.StringArray(nonNil(item.InternshipIDs))}
		if _, err = tx.NamedExecContext(ctx, upsertRepresentativeQuery, row); err != nil {
			return fmt.Errorf("upsert representative %s: %w", item.ID, err)
		}
	}
	for _, item := range changes.Staff {
		if _, err = tx.NamedExecContext(ctx, upsertStaffQuery, item); err != nil {
			return fmt.Errorf("upsert staff %s: %w", item.ID, err)
		}
	}
	if len(changes.RemovedInternshipIDs) > 0 {
		if _, err = tx.ExecContext(ctx, deleteInternshipsQuery, pq.Array(changes.RemovedInternshipIDs)); err != nil {
			return fmt.Errorf("delete internships: %w", err)
		}
	}
	if len(changes.RemovedRepresentativeIDs) > 0 {
		if _, err = tx.ExecContext(ctx, deleteRepresentativesQuery, pq.Array(changes.RemovedRepresentativeIDs)); err != nil {
			return fmt.Errorf("delete representatives: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot tx: %w", err)
	}
	return nil
}

// Load reads every table and returns the snapshot as a change set ready to apply.
func (r *SnapshotRepository) Load(ctx context.Context) (models.ChangeSet, error) {
	var (
		internships     []internshipRow
		applications    []models.Application
		students        []studentRow
		representatives []representativeRow
		staff           []models.CareerCenterStaff
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := r.db.SelectContext(gctx, &internships, `SELECT id, title, description, level, preferred_major, opening_date, closing_date, company_name, representative_id, num_slots, filled_slots, visible, status, application_ids, created_at, updated_at FROM internships`); err != nil {
			return fmt.Errorf("load internships: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := r.db.SelectContext(gctx, &applications, `SELECT id, student_id, internship_id, status, confirmed, withdrawal_requested, withdrawal_reason, created_at, updated_at FROM internship_applications`); err != nil {
			return fmt.Errorf("load applications: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := r.db.SelectContext(gctx, &students, `SELECT id, name, year_of_study, major, password_hash, application_ids, accepted_internship_id FROM students`); err != nil {
			return fmt.Errorf("load students: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := r.db.SelectContext(gctx, &representatives, `SELECT id, name, company_name, department, position, approved, password_hash, internship_ids FROM company_representatives`); err != nil {
			return fmt.Errorf("load representatives: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := r.db.SelectContext(gctx, &staff, `SELECT id, name, department, password_hash FROM career_center_staff`); err != nil {
			return fmt.Errorf("load staff: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.ChangeSet{}, err
	}

	snapshot := models.ChangeSet{Applications: applications, Staff: staff}
	for _, row := range internships {
		item := row.Internship
		item.ApplicationIDs = []string(row.ApplicationIDs)
		snapshot.Internships = append(snapshot.Internships, item)
	}
	for _, row := range students {
		item := row.Student
		item.ApplicationIDs = []string(row.ApplicationIDs)
		snapshot.Students = append(snapshot.Students, item)
	}
	for _, row := range representatives {
		item := row.CompanyRepresentative
		item.InternshipIDs = []string(row.InternshipIDs)
		snapshot.Representatives = append(snapshot.Representatives, item)
	}
	return snapshot, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
