package workouts

import "time"

// Session is one performed workout. It can point to the template it was
// started from; the pointer is nil for free sessions and for sessions
// whose template got deleted afterwards.
type Session struct {
	ID          int       `json:"id"`
	UserID      int       `json:"-"`
	TemplateID  *int      `json:"templateId"`
	PerformedAt time.Time `json:"performedAt"`
}

// SessionDetails is a session together with all of its sets.
type SessionDetails struct {
	Session
	Sets []SetDetails `json:"sets"`
}
