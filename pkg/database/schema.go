package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Schema holds the snapshot tables, applied in order.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS students (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		year_of_study INT NOT NULL,
		major TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		application_ids TEXT[] NOT NULL DEFAULT '{}',
		accepted_internship_id TEXT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS company_representatives (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		company_name TEXT NOT NULL,
		department TEXT NOT NULL,
		position TEXT NOT NULL,
		approved BOOLEAN NOT NULL DEFAULT FALSE,
		password_hash TEXT NOT NULL,
		internship_ids TEXT[] NOT NULL DEFAULT '{}'
	)`,
	`CREATE TABLE IF NOT EXISTS career_center_staff (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		department TEXT NOT NULL,
		password_hash TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS internships (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		level TEXT NOT NULL,
		preferred_major TEXT NOT NULL,
		opening_date DATE NOT NULL,
		closing_date DATE NOT NULL,
		company_name TEXT NOT NULL,
		representative_id TEXT NOT NULL,
		num_slots INT NOT NULL,
		filled_slots INT NOT NULL DEFAULT 0,
		visible BOOLEAN NOT NULL DEFAULT FALSE,
		status TEXT NOT NULL,
		application_ids TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS internship_applications (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		internship_id TEXT NOT NULL,
		status TEXT NOT NULL,
		confirmed BOOLEAN NOT NULL DEFAULT FALSE,
		withdrawal_requested BOOLEAN NOT NULL DEFAULT FALSE,
		withdrawal_reason TEXT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS activity_logs (
		id TEXT PRIMARY KEY,
		actor_id TEXT NOT NULL,
		actor_role TEXT NOT NULL,
		action TEXT NOT NULL,
		description TEXT NOT NULL,
		related_entity_id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_logs_actor ON activity_logs (actor_id, created_at DESC)`,
}

// EnsureSchema creates the snapshot tables when missing.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i, err)
		}
	}
	return nil
}
