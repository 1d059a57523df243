package assignment

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Collection holds one fetch's worth of assignments and answers sort and
// filter queries. The underlying set is never mutated; every view returns
// a fresh slice, and a new fetch replaces the Collection wholesale.
type Collection struct {
	items   []Assignment
	defects int
	policy  Policy
	coll    *collate.Collator
}

// NewCollection wraps a fetch-ordered assignment set. defects is the
// number of records whose due date fell back to the fetch time.
func NewCollection(items []Assignment, defects int, p Policy) *Collection {
	owned := make([]Assignment, len(items))
	copy(owned, items)
	return &Collection{
		items:   owned,
		defects: defects,
		policy:  p,
		coll:    collate.New(language.English, collate.IgnoreCase),
	}
}

// EmptyCollection returns a collection with no assignments, used for the
// signed-out and empty-upstream states.
func EmptyCollection(p Policy) *Collection {
	return NewCollection(nil, 0, p)
}

func (c *Collection) Len() int     { return len(c.items) }
func (c *Collection) Defects() int { return c.defects }

// Items returns the assignments in original fetch order.
func (c *Collection) Items() []Assignment {
	out := make([]Assignment, len(c.items))
	copy(out, c.items)
	return out
}

// SortByDueDate returns the set ordered by due date ascending. The sort is
// stable, so equal due dates keep their original id order.
func (c *Collection) SortByDueDate() []Assignment {
	out := c.Items()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueDate.Before(out[j].DueDate)
	})
	return out
}

// SortByTitle returns the set ordered by title using case-insensitive
// locale-aware collation, so "alpha" sorts before "Beta" before "Zeta".
func (c *Collection) SortByTitle() []Assignment {
	out := c.Items()
	sort.SliceStable(out, func(i, j int) bool {
		return c.coll.CompareString(out[i].Title, out[j].Title) < 0
	})
	return out
}

// FilterUrgent keeps entries due today through three days out, classified
// against now at call time. Overdue entries are excluded unless the policy
// opts them in.
func (c *Collection) FilterUrgent(now time.Time) []Assignment {
	out := make([]Assignment, 0, len(c.items))
	for _, a := range c.items {
		days := DaysUntil(a.DueDate, now)
		if days > 3 {
			continue
		}
		if days < 0 && !c.policy.UrgentIncludesOverdue {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Search returns entries whose title, course, or (per policy) description
// contains term, case-insensitively. An empty term returns the full set in
// original order.
func (c *Collection) Search(term string) []Assignment {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return c.Items()
	}

	out := make([]Assignment, 0, len(c.items))
	for _, a := range c.items {
		if strings.Contains(strings.ToLower(a.Title), term) ||
			strings.Contains(strings.ToLower(a.Course), term) ||
			(c.policy.SearchDescription && strings.Contains(strings.ToLower(a.Description), term)) {
			out = append(out, a)
		}
	}
	return out
}
