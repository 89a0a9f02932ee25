package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaStatements are idempotent and get executed on every startup.
// Note: exercise_set.exercise_id deliberately carries no foreign key, so
// that deleting an exercise keeps the historical sets referencing it.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS fituser (
		id SERIAL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS exercise (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES fituser(id) ON DELETE CASCADE,
		name TEXT NOT NULL
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS exercise_user_name_unique
		ON exercise (user_id, LOWER(name));`,
	`CREATE TABLE IF NOT EXISTS workout_template (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES fituser(id) ON DELETE CASCADE,
		name TEXT NOT NULL
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS workout_template_user_name_unique
		ON workout_template (user_id, LOWER(name));`,
	`CREATE TABLE IF NOT EXISTS workout_template_exercise (
		template_id INTEGER NOT NULL REFERENCES workout_template(id) ON DELETE CASCADE,
		exercise_id INTEGER NOT NULL REFERENCES exercise(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		PRIMARY KEY (template_id, exercise_id)
	);`,
	`CREATE TABLE IF NOT EXISTS workout_session (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES fituser(id) ON DELETE CASCADE,
		template_id INTEGER REFERENCES workout_template(id) ON DELETE SET NULL,
		performed_at TIMESTAMPTZ NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS exercise_set (
		id SERIAL PRIMARY KEY,
		session_id INTEGER NOT NULL REFERENCES workout_session(id) ON DELETE CASCADE,
		exercise_id INTEGER NOT NULL,
		set_number INTEGER NOT NULL,
		reps INTEGER NOT NULL,
		weight REAL NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS exercise_set_session_idx
		ON exercise_set (session_id);`,
	`CREATE INDEX IF NOT EXISTS workout_session_user_performed_idx
		ON workout_session (user_id, performed_at DESC);`,
}

func ApplySchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}
	return nil
}
