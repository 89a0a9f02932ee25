package exercises

// Exercise is a named movement owned by a single user. Two users can
// both have a "Squat", one user cannot have it twice.
type Exercise struct {
	ID     int    `json:"id"`
	UserID int    `json:"-"`
	Name   string `json:"name"`
}
