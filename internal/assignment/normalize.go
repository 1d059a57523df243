package assignment

import (
	"errors"
	"regexp"
	"strings"
	"time"

	appLog "github.com/Mr-Eke/DueBoard/internal/log"
)

const (
	untitledEvent = "Untitled Event"
	noDescription = "No Description"
)

var (
	// courseTagRe captures the inner text of the first bracketed span.
	courseTagRe = regexp.MustCompile(`\[(.*?)\]`)
	// stripTagRe removes every bracketed span plus surrounding whitespace.
	stripTagRe = regexp.MustCompile(`\s*\[.*?\]\s*`)
)

// Normalize maps one raw calendar event plus its ordinal position to an
// Assignment. The returned defect flag is true when the due date could not
// be resolved from the event and fell back to now; a defective record is
// still usable and must not abort the batch.
func Normalize(raw RawEvent, id int, now time.Time, loc *time.Location, p Policy) (Assignment, bool) {
	if loc == nil {
		loc = time.Local
	}

	title, course := splitCourseTag(raw.Summary, p.DefaultCourse)
	desc := fallbackDescription(raw.Description, title, course, p)
	due, defect := resolveDueDate(raw, now, loc)

	return Assignment{
		ID:          id,
		Title:       title,
		Course:      course,
		Description: desc,
		DueDate:     due,
	}, defect
}

// NormalizeBatch maps a fetch-ordered slice of raw events into a
// Collection, assigning ids by position and counting due-date defects.
func NormalizeBatch(raws []RawEvent, now time.Time, loc *time.Location, p Policy) *Collection {
	items := make([]Assignment, 0, len(raws))
	defects := 0

	for i, raw := range raws {
		a, defect := Normalize(raw, i, now, loc, p)
		if defect {
			defects++
			appLog.Error("assignment due date unresolved; using current time", errUnresolvedDue,
				"id", i, "summary", raw.Summary)
		}
		items = append(items, a)
	}

	return NewCollection(items, defects, p)
}

var errUnresolvedDue = errors.New("event end date missing or invalid")

func splitCourseTag(summary, defaultCourse string) (title, course string) {
	if strings.TrimSpace(summary) == "" {
		return untitledEvent, defaultCourse
	}

	course = defaultCourse
	if m := courseTagRe.FindStringSubmatch(summary); m != nil && m[1] != "" {
		course = m[1]
	}

	title = strings.TrimSpace(stripTagRe.ReplaceAllString(summary, ""))
	if title == "" {
		title = untitledEvent
	}
	return title, course
}

func fallbackDescription(desc, title, course string, p Policy) string {
	if trimmed := strings.TrimSpace(desc); trimmed != "" {
		return trimmed
	}

	// Which field the quiz fallback keys off is a policy knob, "title"
	// by default.
	keyed := title
	if p.QuizFallbackField == "course" {
		keyed = course
	}
	if strings.Contains(strings.ToLower(keyed), "quiz") {
		return "This is a quiz for " + course
	}
	return noDescription
}

// resolveDueDate applies the documented precedence: a precise timestamp
// wins; an all-day date resolves to one minute before local midnight of
// that date (23:59 the previous day); anything else falls back to now and
// flags a defect.
func resolveDueDate(raw RawEvent, now time.Time, loc *time.Location) (time.Time, bool) {
	if raw.EndDateTime != "" {
		t, err := time.Parse(time.RFC3339, raw.EndDateTime)
		if err == nil {
			return t, false
		}
		return now, true
	}

	if raw.EndDate != "" {
		t, err := time.ParseInLocation("2006-01-02", raw.EndDate, loc)
		if err == nil {
			return t.Add(-time.Minute), false
		}
		return now, true
	}

	return now, true
}
