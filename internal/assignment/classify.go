package assignment

import (
	"fmt"
	"math"
	"time"
)

// Tier is the urgency band derived from days-until-due.
type Tier string

const (
	TierOverdue Tier = "overdue"
	TierUrgent  Tier = "urgent"
	TierWarning Tier = "warning"
	TierSafe    Tier = "safe"
)

// Countdown is the result of classifying a due instant against now.
type Countdown struct {
	DaysUntil int    `json:"daysUntil"`
	Tier      Tier   `json:"tier"`
	Label     string `json:"label"`
}

// DaysUntil returns floor((due - now) in whole days), corrected so that a
// zero-day result whose instant has already passed reports -1. "Today but
// already past" classifies as overdue, never as due today.
func DaysUntil(due, now time.Time) int {
	days := int(math.Floor(due.Sub(now).Hours() / 24))
	if days == 0 && now.After(due) {
		return -1
	}
	return days
}

// Classify computes the countdown for a due instant. Results depend on
// wall-clock time and must be recomputed at query time, never cached on
// the Assignment.
func Classify(due, now time.Time) Countdown {
	days := DaysUntil(due, now)
	return Countdown{
		DaysUntil: days,
		Tier:      tierFor(days),
		Label:     labelFor(days),
	}
}

func tierFor(days int) Tier {
	switch {
	case days < 0:
		return TierOverdue
	case days <= 2:
		return TierUrgent
	case days <= 3:
		return TierWarning
	default:
		return TierSafe
	}
}

func labelFor(days int) string {
	switch {
	case days > 0:
		if days == 1 {
			return "1 day left"
		}
		return fmt.Sprintf("%d days left", days)
	case days == 0:
		return "Due today"
	default:
		return "Already due"
	}
}

// FormatDueDate renders a due instant the way the dashboard displays it,
// e.g. "Mon, Mar 10, 11:59 PM".
func FormatDueDate(t time.Time) string {
	return t.Format("Mon, Jan 2, 3:04 PM")
}
