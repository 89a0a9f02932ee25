package workouts

// Set is one logged unit of work within a session. The set number comes
// from the caller and is not required to be unique or contiguous.
//
// ExerciseID intentionally has no foreign key behind it: deleting an
// exercise keeps the historical sets logged for it.
type Set struct {
	ID         int     `json:"id"`
	SessionID  int     `json:"sessionId"`
	ExerciseID int     `json:"exerciseId"`
	SetNumber  int     `json:"setNumber"`
	Reps       int     `json:"reps"`
	Weight     float64 `json:"weight"`
}

// SetDetails carries the exercise display name alongside the raw set, so
// clients need no extra lookup. The name is empty for sets whose
// exercise got deleted.
type SetDetails struct {
	Set
	ExerciseName string `json:"exerciseName"`
}
