package templates

// Template is a reusable workout plan: an ordered list of exercises
// a user intends to perform together.
type Template struct {
	ID     int    `json:"id"`
	UserID int    `json:"-"`
	Name   string `json:"name"`
}

// TemplateExercise is a single entry of a template, carrying the
// exercise name for display so clients need no extra lookup.
type TemplateExercise struct {
	ExerciseID   int    `json:"exerciseId"`
	ExerciseName string `json:"exerciseName"`
	Position     int    `json:"position"`
}

// TemplateDetails is a template together with its linked exercises,
// ordered by position.
type TemplateDetails struct {
	Template
	Exercises []TemplateExercise `json:"exercises"`
}
