package database

import (
	"context"
	"fmt"
)

// schema is applied in order on startup. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id       BIGSERIAL PRIMARY KEY,
		email         TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		full_name     TEXT NOT NULL DEFAULT '',
		role          TEXT NOT NULL DEFAULT 'CITIZEN',
		department    TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (LOWER(email))`,
	`CREATE TABLE IF NOT EXISTS departments (
		department_id BIGSERIAL PRIMARY KEY,
		name          TEXT NOT NULL,
		description   TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS departments_name_key ON departments (LOWER(name))`,
	`CREATE TABLE IF NOT EXISTS complaints (
		complaint_id        BIGSERIAL PRIMARY KEY,
		citizen_id          BIGINT NOT NULL REFERENCES users (user_id),
		title               VARCHAR(100) NOT NULL,
		description         TEXT NOT NULL,
		category            TEXT NOT NULL,
		image_path          TEXT NOT NULL DEFAULT '',
		location            TEXT NOT NULL DEFAULT '',
		latitude            TEXT NOT NULL DEFAULT '',
		longitude           TEXT NOT NULL DEFAULT '',
		address             TEXT NOT NULL DEFAULT '',
		status              TEXT NOT NULL,
		priority            TEXT NOT NULL DEFAULT 'MEDIUM',
		assigned_department TEXT,
		assigned_officer    TEXT,
		resolution_note     TEXT,
		feedback            TEXT,
		rating              INT CHECK (rating BETWEEN 1 AND 5),
		created_at          TIMESTAMPTZ NOT NULL,
		updated_at          TIMESTAMPTZ NOT NULL,
		resolved_at         TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS complaints_citizen_idx ON complaints (citizen_id)`,
	`CREATE INDEX IF NOT EXISTS complaints_department_lower_idx ON complaints (LOWER(assigned_department))`,
	`CREATE TABLE IF NOT EXISTS activity_logs (
		id                 BIGSERIAL PRIMARY KEY,
		complaint_id       BIGINT NOT NULL REFERENCES complaints (complaint_id),
		activity_type      TEXT NOT NULL,
		action_description TEXT NOT NULL,
		actor              TEXT NOT NULL,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS activity_logs_complaint_idx ON activity_logs (complaint_id, created_at DESC)`,
}

// Migrate creates the tables and indexes if they do not exist
func Migrate(ctx context.Context, db DB) error {
	for i, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d: %w", i, err)
		}
	}
	return nil
}
