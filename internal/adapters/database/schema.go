package database

import (
	"context"
	"fmt"

	"github.com/zatekoja/erwaittime/internal/infrastructure/clients/postgres"
)

const (
	profilesTable    = "hospital_profiles"
	coordinatesTable = "hospital_coordinates"
	feedbackTable    = "feedback"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS hospital_profiles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		region TEXT NOT NULL DEFAULT '',
		facility_size INTEGER NOT NULL DEFAULT 0,
		average_wait_times JSONB NOT NULL,
		nurse_to_patient_ratio DOUBLE PRECISION NOT NULL DEFAULT 0,
		specialist_availability DOUBLE PRECISION NOT NULL DEFAULT 0,
		patient_satisfaction DOUBLE PRECISION NOT NULL DEFAULT 0,
		visit_count INTEGER NOT NULL DEFAULT 0,
		empty_buckets JSONB NOT NULL DEFAULT '[]',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS hospital_coordinates (
		hospital_id TEXT PRIMARY KEY,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS feedback (
		id TEXT PRIMARY KEY,
		hospital_id TEXT NOT NULL,
		hospital_name TEXT NOT NULL DEFAULT '',
		report_type TEXT NOT NULL,
		actual_wait_time INTEGER,
		comments TEXT,
		reported_at TIMESTAMPTZ NOT NULL,
		user_agent TEXT,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS feedback_created_at_idx ON feedback (created_at)`,
}

// EnsureSchema creates the profile, coordinate and feedback tables if missing.
func EnsureSchema(ctx context.Context, client *postgres.Client) error {
	for _, stmt := range schemaStatements {
		if _, err := client.DB().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
