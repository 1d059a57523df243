package assignment

import "strings"

// SelectCalendar returns the id of the first calendar whose display name
// contains match, case-insensitively. ok is false when no calendar
// matches; that is a normal outcome, not an error.
//
// First-match-wins is deliberate but depends on upstream list order, which
// the calendar service does not guarantee to be stable across accounts or
// releases.
func SelectCalendar(refs []CalendarRef, match string) (id string, ok bool) {
	needle := strings.ToLower(match)
	for _, ref := range refs {
		if strings.Contains(strings.ToLower(ref.DisplayName), needle) {
			return ref.ID, true
		}
	}
	return "", false
}
