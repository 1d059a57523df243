package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/Mr-Eke/DueBoard/internal/assignment"
	appLog "github.com/Mr-Eke/DueBoard/internal/log"
)

const defaultMaxOccurrencesPerEvent = 500

// ExpandWindow turns feed events into raw calendar events with concrete
// end descriptors, restricted to deadlines falling in [start, end].
// Recurring entries (weekly quizzes and the like) are expanded via their
// RRULE, capped per event so a runaway rule cannot flood the board. The
// output feeds the same normalizer as the Google Calendar source: all-day
// deadlines carry an EndDate, timed ones an EndDateTime.
func ExpandWindow(events []FeedEvent, start, end time.Time, loc *time.Location, maxPerEvent int) []assignment.RawEvent {
	if loc == nil {
		loc = time.Local
	}
	if maxPerEvent <= 0 {
		maxPerEvent = defaultMaxOccurrencesPerEvent
	}

	out := make([]assignment.RawEvent, 0, len(events))
	for _, ev := range events {
		if ev.RawRRule == "" {
			if inWindow(ev.End, start, end) {
				out = append(out, rawFromDeadline(ev, ev.End, loc))
			}
			continue
		}
		out = append(out, expandRecurring(ev, start, end, loc, maxPerEvent)...)
	}
	return out
}

func expandRecurring(ev FeedEvent, start, end time.Time, loc *time.Location, maxPerEvent int) []assignment.RawEvent {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("feed rrule unparseable; event skipped", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)

	duration := ev.End.Sub(ev.Start)

	occStarts := set.Between(start.In(ev.Start.Location()), end.In(ev.Start.Location()), true)
	if len(occStarts) > maxPerEvent {
		appLog.Error("feed recurrence truncated", errTruncated, "uid", ev.UID, "cap", maxPerEvent)
		occStarts = occStarts[:maxPerEvent]
	}

	out := make([]assignment.RawEvent, 0, len(occStarts))
	for _, occStart := range occStarts {
		out = append(out, rawFromDeadline(ev, occStart.Add(duration), loc))
	}
	return out
}

var errTruncated = errors.New("max occurrences reached")

func rawFromDeadline(ev FeedEvent, due time.Time, loc *time.Location) assignment.RawEvent {
	raw := assignment.RawEvent{
		Summary:     ev.Summary,
		Description: ev.Description,
	}
	if ev.AllDay {
		raw.EndDate = due.In(loc).Format("2006-01-02")
	} else {
		raw.EndDateTime = due.Format(time.RFC3339)
	}
	return raw
}

func inWindow(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}
