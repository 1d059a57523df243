package session

import (
	"testing"
	"time"

	"github.com/Mr-Eke/DueBoard/internal/assignment"
	"github.com/Mr-Eke/DueBoard/internal/gcal"
)

func newTestCollection(n int) *assignment.Collection {
	items := make([]assignment.Assignment, n)
	for i := range items {
		items[i] = assignment.Assignment{ID: i, Title: "A", DueDate: time.Now()}
	}
	return assignment.NewCollection(items, 0, assignment.DefaultPolicy())
}

func TestSession_StateTransitions(t *testing.T) {
	t.Parallel()

	s := New(assignment.DefaultPolicy())
	if s.State() != StateUnauthorized {
		t.Fatalf("initial state = %q", s.State())
	}

	s.SetAuthorized(true)
	if s.State() != StateReady {
		t.Fatalf("authorized state = %q", s.State())
	}

	gen, ok := s.BeginRefresh()
	if !ok {
		t.Fatal("BeginRefresh refused with no refresh in flight")
	}
	s.FailRefresh(gen, gcal.KindNetwork)
	if s.State() != StateError {
		t.Fatalf("state after failure = %q", s.State())
	}
	if s.LastErrorKind() != gcal.KindNetwork {
		t.Fatalf("LastErrorKind = %q", s.LastErrorKind())
	}

	gen, _ = s.BeginRefresh()
	s.CompleteRefresh(gen, newTestCollection(2))
	if s.State() != StateReady {
		t.Fatalf("state after success = %q", s.State())
	}
	if s.Collection().Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Collection().Len())
	}
}

func TestSession_AtMostOneRefreshInFlight(t *testing.T) {
	t.Parallel()

	s := New(assignment.DefaultPolicy())
	gen, ok := s.BeginRefresh()
	if !ok {
		t.Fatal("first BeginRefresh refused")
	}
	if _, ok := s.BeginRefresh(); ok {
		t.Fatal("second BeginRefresh allowed while one is in flight")
	}
	s.CompleteRefresh(gen, newTestCollection(0))
	if _, ok := s.BeginRefresh(); !ok {
		t.Fatal("BeginRefresh refused after completion")
	}
}

func TestSession_ClearSupersedesInFlightRefresh(t *testing.T) {
	t.Parallel()

	s := New(assignment.DefaultPolicy())
	s.SetAuthorized(true)
	s.SetCalendarID("cal-2")

	gen, _ := s.BeginRefresh()
	s.Clear()

	if s.CompleteRefresh(gen, newTestCollection(5)) {
		t.Fatal("stale refresh applied after Clear")
	}
	if s.Collection().Len() != 0 {
		t.Fatalf("Len = %d after Clear, want 0", s.Collection().Len())
	}
	if s.CalendarID() != "" || s.Authorized() {
		t.Fatal("Clear did not reset session identity")
	}
}

func TestSession_FailureKeepsPreviousSet(t *testing.T) {
	t.Parallel()

	s := New(assignment.DefaultPolicy())
	s.SetAuthorized(true)

	gen, _ := s.BeginRefresh()
	s.CompleteRefresh(gen, newTestCollection(3))

	gen, _ = s.BeginRefresh()
	s.FailRefresh(gen, gcal.KindAuth)

	if s.Collection().Len() != 3 {
		t.Fatalf("Len = %d, want previous set retained", s.Collection().Len())
	}
}
