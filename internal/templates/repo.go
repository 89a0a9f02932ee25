package templates

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/fittrack/internal/telemetry/tracing"
	"github.com/2beens/fittrack/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrTemplateNotFound      = errors.New("template not found")
	ErrNameTaken             = errors.New("template name already taken")
	ErrExerciseLinked        = errors.New("exercise already in template")
	ErrExerciseNotInTemplate = errors.New("exercise not in template")
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, template Template) (_ *Template, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.templates.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if template.Name == "" {
		return nil, errors.New("template name empty")
	}

	err = r.db.QueryRow(
		ctx,
		`INSERT INTO workout_template (user_id, name) VALUES ($1, $2) RETURNING id;`,
		template.UserID, template.Name,
	).Scan(&template.ID)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrNameTaken
		}
		return nil, fmt.Errorf("insert template: %w", err)
	}

	span.SetAttributes(attribute.Int("template.id", template.ID))

	return &template, nil
}

func (r *Repo) Get(ctx context.Context, userID, id int) (_ *Template, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.templates.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	var t Template
	err = r.db.QueryRow(
		ctx,
		`SELECT id, user_id, name FROM workout_template WHERE id = $1 AND user_id = $2;`,
		id, userID,
	).Scan(&t.ID, &t.UserID, &t.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan template: %w", err)
	}
	return &t, nil
}

func (r *Repo) List(ctx context.Context, userID int) (_ []Template, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.templates.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, name FROM workout_template WHERE user_id = $1 ORDER BY id ASC;`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	templates := make([]Template, 0)
	for rows.Next() {
		var t Template
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return templates, nil
}

func (r *Repo) NameExists(ctx context.Context, userID int, name string, excludeID int) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.templates.nameExists")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var exists bool
	err = r.db.QueryRow(
		ctx,
		`SELECT EXISTS (
			SELECT 1 FROM workout_template
			WHERE user_id = $1 AND LOWER(name) = LOWER($2) AND id != $3
		);`,
		userID, name, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check template name: %w", err)
	}
	return exists, nil
}

func (r *Repo) Update(ctx context.Context, template *Template) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.templates.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", template.ID))

	if template.Name == "" {
		return errors.New("template name empty")
	}

	tag, err := r.db.Exec(
		ctx,
		`UPDATE workout_template SET name = $1 WHERE id = $2 AND user_id = $3;`,
		template.Name, template.ID, template.UserID,
	)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return ErrNameTaken
		}
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}

	return nil
}

// Delete removes the template row and its exercise links in a single
// transaction. Sessions created from the template stay around, their
// template_id set to null by the schema.
func (r *Repo) Delete(ctx context.Context, userID, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.templates.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	if _, err = tx.Exec(
		ctx,
		`DELETE FROM workout_template_exercise WHERE template_id = $1;`,
		id,
	); err != nil {
		return fmt.Errorf("delete template links: %w", err)
	}

	tag, err := tx.Exec(
		ctx,
		`DELETE FROM workout_template WHERE id = $1 AND user_id = $2;`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}

	return nil
}

// AddExercise links an exercise to a template at the given position.
func (r *Repo) AddExercise(ctx context.Context, templateID, exerciseID, position int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.templates.addExercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int("template.id", templateID),
		attribute.Int("exercise.id", exerciseID),
	)

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO workout_template_exercise (template_id, exercise_id, position)
			VALUES ($1, $2, $3);`,
		templateID, exerciseID, position,
	)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return ErrExerciseLinked
		}
		return fmt.Errorf("insert template exercise: %w", err)
	}
	return nil
}

func (r *Repo) RemoveExercise(ctx context.Context, templateID, exerciseID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.templates.removeExercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM workout_template_exercise WHERE template_id = $1 AND exercise_id = $2;`,
		templateID, exerciseID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExerciseNotInTemplate
	}
	return nil
}

// ListExercises returns the template entries ordered by position,
// joined with the exercise names.
func (r *Repo) ListExercises(ctx context.Context, templateID int) (_ []TemplateExercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.templates.listExercises")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT te.exercise_id, e.name, te.position
			FROM workout_template_exercise te
			JOIN exercise e ON e.id = te.exercise_id
			WHERE te.template_id = $1
			ORDER BY te.position ASC;`,
		templateID,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	entries := make([]TemplateExercise, 0)
	for rows.Next() {
		var te TemplateExercise
		if err := rows.Scan(&te.ExerciseID, &te.ExerciseName, &te.Position); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		entries = append(entries, te)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return entries, nil
}
