package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/Mr-Eke/DueBoard/internal/assignment"
	"github.com/Mr-Eke/DueBoard/internal/config"
	"github.com/Mr-Eke/DueBoard/internal/gcal"
	appLog "github.com/Mr-Eke/DueBoard/internal/log"
	"github.com/Mr-Eke/DueBoard/internal/session"
)

// AuthProvider is the OAuth surface the server needs; *gcal.Client
// implements it.
type AuthProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) error
	SignOut() error
}

// CalendarLister lists the account's candidate calendars.
type CalendarLister interface {
	ListCalendars(ctx context.Context) ([]assignment.CalendarRef, error)
}

// Refresher triggers one assignment refresh cycle.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Server exposes the dashboard API and the embedded UI.
type Server struct {
	cfg       *config.Config
	sess      *session.Session
	auth      AuthProvider
	calendars CalendarLister
	refresher Refresher
	mux       *http.ServeMux
}

//go:embed all:static
var embeddedStatic embed.FS

func NewServer(cfg *config.Config, sess *session.Session, auth AuthProvider, calendars CalendarLister, refresher Refresher) *Server {
	s := &Server{
		cfg:       cfg,
		sess:      sess,
		auth:      auth,
		calendars: calendars,
		refresher: refresher,
		mux:       http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the server's http.Handler, wrapped with basic auth when
// configured. /health stays unauthenticated.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	ba := s.cfg.BasicAuth
	return ba != nil && ba.Username != "" && ba.Password != ""
}

func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="DueBoard", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/assignments", s.handleAssignments)
	s.mux.HandleFunc("/api/calendars", s.handleCalendars)
	s.mux.HandleFunc("/api/auth/url", s.handleAuthURL)
	s.mux.HandleFunc("/api/auth/callback", s.handleAuthCallback)
	s.mux.HandleFunc("/api/auth/signout", s.handleSignout)
	s.mux.HandleFunc("/api/refresh", s.handleRefresh)
	s.mux.HandleFunc("/board.png", s.handleBoardPNG)
	s.mux.Handle("/", s.staticFileServer())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// assignmentDTO is the JSON view of one assignment. Countdown fields are
// computed against wall-clock time at request time, never cached.
type assignmentDTO struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Course      string    `json:"course"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"dueDate"`
	DueDateText string    `json:"dueDateText"`
	DaysUntil   int       `json:"daysUntil"`
	Tier        string    `json:"tier"`
	Countdown   string    `json:"countdown"`
}

type assignmentsResponse struct {
	State       session.State   `json:"state"`
	ErrorKind   string          `json:"errorKind,omitempty"`
	Count       int             `json:"count"`
	Defects     int             `json:"defects"`
	RefreshedAt *time.Time      `json:"refreshedAt,omitempty"`
	Assignments []assignmentDTO `json:"assignments"`
}

// handleAssignments answers the dashboard's four views.
//
// GET /api/assignments?sort=due|title&view=urgent&q=term
//
// view=urgent takes precedence over q, which takes precedence over sort;
// the UI treats them as mutually exclusive selections.
func (s *Server) handleAssignments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}

	coll := s.sess.Collection()
	now := time.Now()

	q := r.URL.Query()
	var items []assignment.Assignment
	switch {
	case q.Get("view") == "urgent":
		items = coll.FilterUrgent(now)
	case q.Get("q") != "":
		items = coll.Search(q.Get("q"))
	case q.Get("sort") == "due":
		items = coll.SortByDueDate()
	case q.Get("sort") == "title":
		items = coll.SortByTitle()
	default:
		items = coll.Items()
	}

	dtos := make([]assignmentDTO, 0, len(items))
	for _, a := range items {
		cd := assignment.Classify(a.DueDate, now)
		dtos = append(dtos, assignmentDTO{
			ID:          a.ID,
			Title:       a.Title,
			Course:      a.Course,
			Description: a.Description,
			DueDate:     a.DueDate,
			DueDateText: assignment.FormatDueDate(a.DueDate),
			DaysUntil:   cd.DaysUntil,
			Tier:        string(cd.Tier),
			Countdown:   cd.Label,
		})
	}

	resp := assignmentsResponse{
		State:       s.sess.State(),
		ErrorKind:   string(s.sess.LastErrorKind()),
		Count:       len(dtos),
		Defects:     coll.Defects(),
		Assignments: dtos,
	}
	if at := s.sess.RefreshedAt(); !at.IsZero() {
		resp.RefreshedAt = &at
	}
	writeJSON(w, http.StatusOK, resp)
}

type calendarsResponse struct {
	Calendars []calendarDTO `json:"calendars"`
	Selected  string        `json:"selected"`
	Match     string        `json:"match"`
}

type calendarDTO struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

func (s *Server) handleCalendars(w http.ResponseWriter, r *http.Request) {
	if !s.sess.Authorized() {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	refs, err := s.calendars.ListCalendars(r.Context())
	if err != nil {
		appLog.Error("calendar list failed", err)
		writeError(w, statusForKind(gcal.KindOf(err)), "failed to list calendars")
		return
	}

	dtos := make([]calendarDTO, 0, len(refs))
	for _, ref := range refs {
		dtos = append(dtos, calendarDTO{ID: ref.ID, DisplayName: ref.DisplayName})
	}
	writeJSON(w, http.StatusOK, calendarsResponse{
		Calendars: dtos,
		Selected:  s.sess.CalendarID(),
		Match:     s.cfg.CalendarMatch,
	})
}

func (s *Server) handleAuthURL(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"url": s.auth.AuthURL("dueboard"),
	})
}

func (s *Server) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing code")
		return
	}

	if err := s.auth.Exchange(r.Context(), code); err != nil {
		appLog.Error("oauth exchange failed", err)
		writeError(w, http.StatusBadGateway, "authorization failed")
		return
	}

	s.sess.SetAuthorized(true)
	appLog.Info("authorization granted")

	// First refresh happens in the background; the UI polls
	// /api/assignments.
	go func() {
		if err := s.refresher.Refresh(context.Background()); err != nil {
			appLog.Error("post-auth refresh failed", err)
		}
	}()

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleSignout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}

	if err := s.auth.SignOut(); err != nil {
		appLog.Error("signout failed", err)
		writeError(w, http.StatusInternalServerError, "failed to sign out")
		return
	}
	s.sess.Clear()
	appLog.Info("signed out")
	writeJSON(w, http.StatusOK, map[string]string{"state": string(session.StateUnauthorized)})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}
	if !s.sess.Authorized() {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	go func() {
		if err := s.refresher.Refresh(context.Background()); err != nil {
			appLog.Error("manual refresh failed", err)
		}
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refreshing"})
}

// handleBoardPNG serves the last exported board image, if any.
func (s *Server) handleBoardPNG(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, s.cfg.ExportPath)
}

func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("embedded static filesystem unavailable", err)
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "UI not available", http.StatusServiceUnavailable)
		})
	}

	fileServer := http.FileServer(http.FS(sub))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// API paths never fall through to the UI.
		if strings.HasPrefix(r.URL.Path, "/api") {
			http.NotFound(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}

func statusForKind(kind gcal.Kind) int {
	switch kind {
	case gcal.KindAuth:
		return http.StatusUnauthorized
	case gcal.KindNotFound:
		return http.StatusNotFound
	case gcal.KindNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
