package assignment

import "time"

// RawEvent is the already-parsed shape of one upstream calendar event, as
// delivered by either the Google Calendar source or an ICS feed source.
// Exactly one of EndDate / EndDateTime is normally present; the normalizer
// tolerates both present (the precise timestamp wins) and both absent.
type RawEvent struct {
	// Summary is the raw event title, optionally carrying a bracketed
	// course tag like "[CS101] Quiz 2".
	Summary string

	// Description is optional free text.
	Description string

	// EndDate is an all-day calendar date in "2006-01-02" form.
	EndDate string

	// EndDateTime is a precise RFC 3339 instant.
	EndDateTime string
}

// CalendarRef identifies one candidate calendar in the upstream account.
type CalendarRef struct {
	ID          string
	DisplayName string
}

// Assignment is the normalized, display-ready record derived from one
// calendar event.
type Assignment struct {
	// ID is the event's position in the fetch-ordered result set.
	ID int `json:"id"`

	// Title is the display title with any bracketed course tag removed.
	Title string `json:"title"`

	// Course is the first bracketed tag's inner text, or the configured
	// default label when the title carries no tag.
	Course string `json:"course"`

	Description string `json:"description"`

	// DueDate is always a valid instant; unresolvable inputs fall back
	// to the normalization time and are counted as defects.
	DueDate time.Time `json:"dueDate"`
}

// Policy holds the tunable normalization and view behaviors.
// See DESIGN.md for the rejected alternatives.
type Policy struct {
	// DefaultCourse is the label used when no bracketed tag is present.
	DefaultCourse string

	// QuizFallbackField selects which field the synthesized quiz
	// description keys off: "title" (default) or "course".
	QuizFallbackField string

	// UrgentIncludesOverdue widens FilterUrgent to overdue entries.
	UrgentIncludesOverdue bool

	// SearchDescription includes the description in Search matching.
	SearchDescription bool
}

// DefaultPolicy returns the recommended defaults.
func DefaultPolicy() Policy {
	return Policy{
		DefaultCourse:     "Canvas",
		QuizFallbackField: "title",
		SearchDescription: true,
	}
}
