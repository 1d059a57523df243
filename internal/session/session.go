package session

import (
	"sync"
	"time"

	"github.com/Mr-Eke/DueBoard/internal/assignment"
	"github.com/Mr-Eke/DueBoard/internal/gcal"
)

// State labels the dashboard's three top-level conditions, so the
// presentation layer can distinguish its empty states.
type State string

const (
	// StateUnauthorized means no token has been granted yet.
	StateUnauthorized State = "unauthorized"
	// StateReady means the last refresh succeeded (the set may be empty).
	StateReady State = "ready"
	// StateError means the last refresh failed at the batch level.
	StateError State = "error"
)

// Session is the explicit value object replacing the ambient globals of
// the original dashboard script: authorization state, the selected
// calendar id, and the current assignment set. The set is only ever
// replaced wholesale, so readers never observe a torn intermediate state.
type Session struct {
	mu sync.Mutex

	policy     assignment.Policy
	authorized bool
	calendarID string
	coll       *assignment.Collection

	lastErrKind gcal.Kind
	refreshedAt time.Time

	gen      uint64
	inFlight bool
}

func New(p assignment.Policy) *Session {
	return &Session{
		policy: p,
		coll:   assignment.EmptyCollection(p),
	}
}

func (s *Session) SetAuthorized(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authorized = v
}

func (s *Session) Authorized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authorized
}

// CalendarID returns the cached selected calendar, empty until selection
// succeeds. Cached once per session and dropped on Clear.
func (s *Session) CalendarID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calendarID
}

func (s *Session) SetCalendarID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calendarID = id
}

// Collection returns the current assignment set.
func (s *Session) Collection() *assignment.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coll
}

// BeginRefresh claims the single refresh slot. ok is false while another
// refresh is in flight; concurrent triggers coalesce instead of
// interleaving.
func (s *Session) BeginRefresh() (gen uint64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return 0, false
	}
	s.gen++
	s.inFlight = true
	return s.gen, true
}

// CompleteRefresh installs a freshly built collection. A completion whose
// generation no longer matches (superseded by Clear) is dropped.
func (s *Session) CompleteRefresh(gen uint64, coll *assignment.Collection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	s.inFlight = false
	s.coll = coll
	s.lastErrKind = ""
	s.refreshedAt = time.Now()
	return true
}

// FailRefresh records a classified batch-level failure. The previous
// assignment set stays in place.
func (s *Session) FailRefresh(gen uint64, kind gcal.Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	s.inFlight = false
	s.lastErrKind = kind
}

// Clear resets to the signed-out state: no calendar, empty set, and any
// in-flight refresh superseded.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authorized = false
	s.calendarID = ""
	s.coll = assignment.EmptyCollection(s.policy)
	s.lastErrKind = ""
	s.refreshedAt = time.Time{}
	s.gen++
	s.inFlight = false
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case !s.authorized:
		return StateUnauthorized
	case s.lastErrKind != "":
		return StateError
	default:
		return StateReady
	}
}

// LastErrorKind is the classified kind of the most recent failed refresh,
// empty when the last refresh succeeded.
func (s *Session) LastErrorKind() gcal.Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErrKind
}

func (s *Session) RefreshedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshedAt
}
