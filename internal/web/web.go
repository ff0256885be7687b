// Package web provides the HTTP API and week page for the calendar.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/sylee2006/Mobile-project/internal/advice"
	"github.com/sylee2006/Mobile-project/internal/config"
	"github.com/sylee2006/Mobile-project/internal/layout"
	applog "github.com/sylee2006/Mobile-project/internal/log"
	"github.com/sylee2006/Mobile-project/internal/model"
	"github.com/sylee2006/Mobile-project/internal/render"
	"github.com/sylee2006/Mobile-project/internal/store"
	"github.com/sylee2006/Mobile-project/internal/week"
)

// Server provides the HTTP API plus the rendered week page.
type Server struct {
	cfg    *config.Config
	store  *store.Store
	advice *advice.Client
	loc    *time.Location
	mux    *http.ServeMux

	// In-memory cache for /api/week responses so a browser polling the week
	// view does not redo the full list + layout pass on every request.
	weekMu    sync.RWMutex
	weekCache map[string]weekCacheEntry
}

type weekCacheEntry struct {
	resp      weekResponse
	updatedAt time.Time
}

const weekCacheTTL = 30 * time.Second

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, st *store.Store, adv *advice.Client) *Server {
	s := &Server{
		cfg:       cfg,
		store:     st,
		advice:    adv,
		loc:       resolveLocationOrLocal(cfg.Timezone),
		mux:       http.NewServeMux(),
		weekCache: make(map[string]weekCacheEntry),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		applog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// An empty username or password counts as disabled.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health stays unauthenticated for probes.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="WeekCal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/events", s.handleEvents)
	s.mux.HandleFunc("/api/week", s.handleWeek)
	s.mux.HandleFunc("/api/advice", s.handleAdvice)
	s.mux.HandleFunc("/preview.png", s.handlePreview)
	s.mux.HandleFunc("/", s.handleIndex)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleEvents manages stored events.
//
//	GET    /api/events?day=2006-01-02     list one day's events in feed order
//	POST   /api/events                     create an event (JSON body)
//	DELETE /api/events?day=2006-01-02&id= remove an event
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleEventsList(w, r)
	case http.MethodPost:
		s.handleEventsCreate(w, r)
	case http.MethodDelete:
		s.handleEventsDelete(w, r)
	default:
		w.Header().Set("Allow", "GET, POST, DELETE")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleEventsList(w http.ResponseWriter, r *http.Request) {
	date, err := parseDay(r.URL.Query().Get("day"), s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid day, want "+model.DayKeyLayout)
		return
	}
	events := s.store.ListDay(r.Context(), date)
	writeJSON(w, http.StatusOK, eventsResponse{
		Day:    date.Format(model.DayKeyLayout),
		Events: events,
	})
}

func (s *Server) handleEventsCreate(w http.ResponseWriter, r *http.Request) {
	var ev model.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.store.Put(&ev); err != nil {
		if errors.Is(err, store.ErrInvalidEvent) {
			writeError(w, http.StatusUnprocessableEntity, "event end must be after start")
			return
		}
		applog.Error("api events: put failed", err)
		writeError(w, http.StatusInternalServerError, "failed to store event")
		return
	}
	s.invalidateWeekCache()
	applog.Info("event created", "id", ev.ID, "day", ev.DayKey(s.loc))
	writeJSON(w, http.StatusCreated, ev)
}

func (s *Server) handleEventsDelete(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	day, id := q.Get("day"), q.Get("id")
	if day == "" || id == "" {
		writeError(w, http.StatusBadRequest, "day and id are required")
		return
	}
	if err := s.store.Delete(day, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		applog.Error("api events: delete failed", err, "day", day, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete event")
		return
	}
	s.invalidateWeekCache()
	applog.Info("event deleted", "id", id, "day", day)
	w.WriteHeader(http.StatusNoContent)
}

// eventsResponse is the JSON response shape for GET /api/events.
type eventsResponse struct {
	Day    string        `json:"day"`
	Events []model.Event `json:"events"`
}

// placementDTO is a JSON-friendly view of one laid-out event box.
type placementDTO struct {
	Event     model.Event `json:"event"`
	Top       float64     `json:"top"`
	Height    float64     `json:"height"`
	LeftFrac  float64     `json:"left_frac"`
	WidthFrac float64     `json:"width_frac"`
}

type dayDTO struct {
	Date       string         `json:"date"`
	Placements []placementDTO `json:"placements"`
}

// weekResponse is the JSON response shape for /api/week.
type weekResponse struct {
	WeekStart string   `json:"week_start"`
	Timezone  string   `json:"timezone"`
	DayHeight float64  `json:"day_height"`
	Days      []dayDTO `json:"days"`
}

// handleWeek returns the laid-out week containing the requested date.
//
// GET /api/week?date=2006-01-02 (defaults to today)
func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	date, err := parseDay(r.URL.Query().Get("date"), s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, want "+model.DayKeyLayout)
		return
	}

	start := week.Start(date, s.cfg.WeekStart)
	cacheKey := start.Format(model.DayKeyLayout)

	s.weekMu.RLock()
	entry, ok := s.weekCache[cacheKey]
	s.weekMu.RUnlock()
	if ok && time.Since(entry.updatedAt) < weekCacheTTL {
		writeJSON(w, http.StatusOK, entry.resp)
		return
	}

	resp := s.buildWeek(r.Context(), start)

	s.weekMu.Lock()
	s.weekCache[cacheKey] = weekCacheEntry{resp: resp, updatedAt: time.Now()}
	s.weekMu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) buildWeek(ctx context.Context, start time.Time) weekResponse {
	m := layout.Metrics{HourHeight: s.cfg.HourHeight}
	resp := weekResponse{
		WeekStart: start.Format(model.DayKeyLayout),
		Timezone:  s.loc.String(),
		DayHeight: m.DayHeight(),
	}
	for _, day := range week.Days(start) {
		events := s.store.ListDay(ctx, day)
		d := dayDTO{
			Date:       day.Format(model.DayKeyLayout),
			Placements: make([]placementDTO, 0, len(events)),
		}
		for _, p := range layout.ComputeDay(events, m) {
			d.Placements = append(d.Placements, placementDTO{
				Event:     p.Event,
				Top:       p.Top,
				Height:    p.Height,
				LeftFrac:  p.LeftFrac,
				WidthFrac: p.WidthFrac,
			})
		}
		resp.Days = append(resp.Days, d)
	}
	return resp
}

func (s *Server) invalidateWeekCache() {
	s.weekMu.Lock()
	s.weekCache = make(map[string]weekCacheEntry)
	s.weekMu.Unlock()
}

// adviceResponse is the JSON response shape for /api/advice.
type adviceResponse struct {
	Day     string `json:"day"`
	Advice  string `json:"advice"`
	Enabled bool   `json:"enabled"`
}

// handleAdvice returns generated advice for one day's schedule.
//
// GET /api/advice?day=2006-01-02 (defaults to today)
func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	date, err := parseDay(r.URL.Query().Get("day"), s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid day, want "+model.DayKeyLayout)
		return
	}

	resp := adviceResponse{
		Day:     date.Format(model.DayKeyLayout),
		Enabled: s.advice.Enabled(),
	}
	if resp.Enabled {
		text, err := s.advice.ForDay(r.Context(), date, s.store.ListDay(r.Context(), date))
		if err != nil {
			applog.Error("api advice: generation failed", err, "day", resp.Day)
			writeError(w, http.StatusBadGateway, "advice generation failed")
			return
		}
		resp.Advice = text
	}
	writeJSON(w, http.StatusOK, resp)
}

// handlePreview serves the last captured PNG from the cache directory.
// The path matches the capture pipeline in cmd/weekcal.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(s.cfg.CacheDir, "preview.png"))
}

// handleIndex renders the week grid HTML for the week containing today
// (or ?date=2006-01-02). This is the page the capture pipeline screenshots.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	date, err := parseDay(r.URL.Query().Get("date"), s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, want "+model.DayKeyLayout)
		return
	}

	now := time.Now().In(s.loc)
	days := week.Days(week.Start(date, s.cfg.WeekStart))
	eventsByDay := make([][]model.Event, len(days))
	for i, day := range days {
		eventsByDay[i] = s.store.ListDay(r.Context(), day)
	}

	var adviceText string
	if s.advice.Enabled() {
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
		text, err := s.advice.ForDay(r.Context(), today, s.store.ListDay(r.Context(), today))
		if err != nil {
			applog.Warn("week page: advice unavailable", "error", err.Error())
		} else {
			adviceText = text
		}
	}

	m := layout.Metrics{HourHeight: s.cfg.HourHeight}
	page := render.BuildPage(days, eventsByDay, m, s.cfg.Highlight, adviceText, now)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.WeekPage(w, page); err != nil {
		applog.Error("week page: render failed", err)
	}
}

// parseDay parses a "2006-01-02" query value, defaulting to today in loc.
func parseDay(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		now := time.Now().In(loc)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc), nil
	}
	return time.ParseInLocation(model.DayKeyLayout, value, loc)
}

func resolveLocationOrLocal(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		applog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		applog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
