package workouts

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/fittrack/internal/telemetry/tracing"
	"github.com/2beens/fittrack/internal/templates"
	"github.com/2beens/fittrack/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrSessionNotFound = errors.New("workout session not found")
	ErrSetNotFound     = errors.New("set not found")
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) AddSession(ctx context.Context, session Session) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.addSession")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	err = r.db.QueryRow(
		ctx,
		`INSERT INTO workout_session (user_id, template_id, performed_at)
			VALUES ($1, $2, $3) RETURNING id;`,
		session.UserID, session.TemplateID, session.PerformedAt,
	).Scan(&session.ID)
	if err != nil {
		// template removed between the ownership check and the insert
		if pkg.IsForeignKeyViolationError(err) {
			return nil, templates.ErrTemplateNotFound
		}
		return nil, fmt.Errorf("insert workout session: %w", err)
	}

	span.SetAttributes(attribute.Int("session.id", session.ID))

	return &session, nil
}

// GetSession fetches a session by id regardless of owner. Callers decide
// between not-found and forbidden by comparing UserID themselves.
func (r *Repo) GetSession(ctx context.Context, id int) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.getSession")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	var s Session
	err = r.db.QueryRow(
		ctx,
		`SELECT id, user_id, template_id, performed_at FROM workout_session WHERE id = $1;`,
		id,
	).Scan(&s.ID, &s.UserID, &s.TemplateID, &s.PerformedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan workout session: %w", err)
	}
	return &s, nil
}

func (r *Repo) ListSessions(ctx context.Context, userID, limit int) (_ []Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.listSessions")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("limit", limit))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, template_id, performed_at
			FROM workout_session
			WHERE user_id = $1
			ORDER BY performed_at DESC
			LIMIT $2;`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	sessions := make([]Session, 0)
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.TemplateID, &s.PerformedAt); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return sessions, nil
}

func (r *Repo) UpdateSession(ctx context.Context, session *Session) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.updateSession")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", session.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE workout_session SET template_id = $1, performed_at = $2
			WHERE id = $3 AND user_id = $4;`,
		session.TemplateID, session.PerformedAt, session.ID, session.UserID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteSession removes the session and its sets in one transaction.
func (r *Repo) DeleteSession(ctx context.Context, userID, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.deleteSession")
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
		`DELETE FROM exercise_set WHERE session_id = $1;`,
		id,
	); err != nil {
		return fmt.Errorf("delete session sets: %w", err)
	}

	tag, err := tx.Exec(
		ctx,
		`DELETE FROM workout_session WHERE id = $1 AND user_id = $2;`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}

	return nil
}

func (r *Repo) AddSet(ctx context.Context, set Set) (_ *Set, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.addSet")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	err = r.db.QueryRow(
		ctx,
		`INSERT INTO exercise_set (session_id, exercise_id, set_number, reps, weight)
			VALUES ($1, $2, $3, $4, $5) RETURNING id;`,
		set.SessionID, set.ExerciseID, set.SetNumber, set.Reps, set.Weight,
	).Scan(&set.ID)
	if err != nil {
		return nil, fmt.Errorf("insert set: %w", err)
	}

	span.SetAttributes(attribute.Int("set.id", set.ID))

	return &set, nil
}

func (r *Repo) GetSet(ctx context.Context, id int) (_ *Set, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.getSet")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	var s Set
	err = r.db.QueryRow(
		ctx,
		`SELECT id, session_id, exercise_id, set_number, reps, weight
			FROM exercise_set WHERE id = $1;`,
		id,
	).Scan(&s.ID, &s.SessionID, &s.ExerciseID, &s.SetNumber, &s.Reps, &s.Weight)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan set: %w", err)
	}
	return &s, nil
}

// ListSets returns the sets of a session ordered by set number, each
// joined with the exercise name. Sets whose exercise was deleted keep an
// empty name.
func (r *Repo) ListSets(ctx context.Context, sessionID int) (_ []SetDetails, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.listSets")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("session.id", sessionID))

	rows, err := r.db.Query(
		ctx,
		`SELECT s.id, s.session_id, s.exercise_id, s.set_number, s.reps, s.weight,
				COALESCE(e.name, '')
			FROM exercise_set s
			LEFT JOIN exercise e ON e.id = s.exercise_id
			WHERE s.session_id = $1
			ORDER BY s.set_number ASC;`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	sets := make([]SetDetails, 0)
	for rows.Next() {
		var s SetDetails
		if err := rows.Scan(
			&s.ID, &s.SessionID, &s.ExerciseID, &s.SetNumber, &s.Reps, &s.Weight,
			&s.ExerciseName,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		sets = append(sets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return sets, nil
}

func (r *Repo) UpdateSet(ctx context.Context, set *Set) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.updateSet")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", set.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE exercise_set SET reps = $1, weight = $2 WHERE id = $3;`,
		set.Reps, set.Weight, set.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSetNotFound
	}
	return nil
}

func (r *Repo) DeleteSet(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.deleteSet")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM exercise_set WHERE id = $1;`,
		id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSetNotFound
	}
	return nil
}
