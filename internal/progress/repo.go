package progress

import (
	"context"
	"fmt"

	"github.com/2beens/fittrack/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// ListUserSets fetches every set of the user's sessions, joined with the
// exercise name. Sets whose exercise got deleted keep an empty name and
// still count towards the progression.
func (r *Repo) ListUserSets(ctx context.Context, userID int) (_ []SessionSet, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.listUserSets")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT s.session_id, s.exercise_id, COALESCE(e.name, ''), s.reps, s.weight
			FROM exercise_set s
			JOIN workout_session ws ON ws.id = s.session_id
			LEFT JOIN exercise e ON e.id = s.exercise_id
			WHERE ws.user_id = $1
			ORDER BY s.session_id ASC, s.id ASC;`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	sets := make([]SessionSet, 0)
	for rows.Next() {
		var s SessionSet
		if err := rows.Scan(&s.SessionID, &s.ExerciseID, &s.ExerciseName, &s.Reps, &s.Weight); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		sets = append(sets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return sets, nil
}
