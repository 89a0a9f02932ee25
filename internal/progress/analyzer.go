package progress

//go:generate mockgen -source=$GOFILE -destination=analyzer_mocks_test.go -package=progress_test

import (
	"context"
	"sort"

	"github.com/2beens/fittrack/internal/telemetry/tracing"
)

// SessionSet is one logged set together with the session it belongs to
// and the exercise name, the raw material for progression series.
type SessionSet struct {
	SessionID    int
	ExerciseID   int
	ExerciseName string
	Reps         int
	Weight       float64
}

// ProgressionPoint is the per-session average for one exercise.
type ProgressionPoint struct {
	SessionID     int     `json:"sessionId"`
	AverageWeight float64 `json:"averageWeight"`
	AverageReps   float64 `json:"averageReps"`
	SetCount      int     `json:"setCount"`
}

// ExerciseProgression is the series of per-session averages for one
// exercise, ordered by session id ascending. Session ids grow in
// creation order, so the series is chronological.
type ExerciseProgression struct {
	ExerciseID   int                `json:"exerciseId"`
	ExerciseName string             `json:"exerciseName"`
	Points       []ProgressionPoint `json:"points"`
}

type setsRepo interface {
	ListUserSets(ctx context.Context, userID int) ([]SessionSet, error)
}

type Analyzer struct {
	repo setsRepo
}

func NewAnalyzer(repo setsRepo) *Analyzer {
	return &Analyzer{
		repo: repo,
	}
}

func (a *Analyzer) Progression(ctx context.Context, userID int) (_ []ExerciseProgression, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.progress.progression")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	sets, err := a.repo.ListUserSets(ctx, userID)
	if err != nil {
		return nil, err
	}

	return BuildProgression(sets), nil
}

// BuildProgression groups raw sets by exercise and produces one point
// per session an exercise appears in, averaging the weights and reps of
// that session's sets only. Exercises with no sets produce nothing, and
// the whole computation is stateless.
func BuildProgression(sets []SessionSet) []ExerciseProgression {
	type exerciseSets struct {
		name            string
		session2sets    map[int][]SessionSet
		sessionIDsOrder []int
	}

	exercise2sets := make(map[int]*exerciseSets)
	var exerciseIDsOrder []int
	for _, s := range sets {
		es, ok := exercise2sets[s.ExerciseID]
		if !ok {
			es = &exerciseSets{
				name:         s.ExerciseName,
				session2sets: make(map[int][]SessionSet),
			}
			exercise2sets[s.ExerciseID] = es
			exerciseIDsOrder = append(exerciseIDsOrder, s.ExerciseID)
		}
		if _, seen := es.session2sets[s.SessionID]; !seen {
			es.sessionIDsOrder = append(es.sessionIDsOrder, s.SessionID)
		}
		es.session2sets[s.SessionID] = append(es.session2sets[s.SessionID], s)
	}

	sort.Ints(exerciseIDsOrder)

	progressions := make([]ExerciseProgression, 0, len(exercise2sets))
	for _, exerciseID := range exerciseIDsOrder {
		es := exercise2sets[exerciseID]
		sort.Ints(es.sessionIDsOrder)

		points := make([]ProgressionPoint, 0, len(es.sessionIDsOrder))
		for _, sessionID := range es.sessionIDsOrder {
			sessionSets := es.session2sets[sessionID]
			var weightSum, repsSum float64
			for _, s := range sessionSets {
				weightSum += s.Weight
				repsSum += float64(s.Reps)
			}
			points = append(points, ProgressionPoint{
				SessionID:     sessionID,
				AverageWeight: weightSum / float64(len(sessionSets)),
				AverageReps:   repsSum / float64(len(sessionSets)),
				SetCount:      len(sessionSets),
			})
		}

		progressions = append(progressions, ExerciseProgression{
			ExerciseID:   exerciseID,
			ExerciseName: es.name,
			Points:       points,
		})
	}

	return progressions
}
