// Package web serves the calendar panel: a server-rendered page for the
// month/week/agenda views, a JSON API mirroring the render model, and the
// ICS export of the fetched window.
package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"sync"
	"time"

	"calpane/internal/config"
	"calpane/internal/export"
	appLog "calpane/internal/log"
	"calpane/internal/model"
	"calpane/internal/script"
	"calpane/internal/slideshow"
	"calpane/internal/view"
	"calpane/internal/widget"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server wires the controller, slideshow and config into HTTP handlers.
type Server struct {
	cfg      *config.Config
	ctrl     *widget.Controller
	carousel *slideshow.Carousel
	mux      *http.ServeMux
	tmpl     *template.Template

	// previewPath is where the snapshot pipeline writes its PNG; served
	// verbatim under /preview.png.
	previewPath string

	// lastError remembers the most recent refresh failure so the page can
	// show it while the previously fetched state stays on screen.
	errMu     sync.Mutex
	lastError string
	lastKind  script.ErrorKind
}

// NewServer constructs a Server. carousel may be nil when the slideshow is
// disabled.
func NewServer(cfg *config.Config, ctrl *widget.Controller, carousel *slideshow.Carousel, previewPath string) *Server {
	s := &Server{
		cfg:         cfg,
		ctrl:        ctrl,
		carousel:    carousel,
		mux:         http.NewServeMux(),
		tmpl:        template.Must(template.ParseFS(templateFS, "templates/*.html")),
		previewPath: previewPath,
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler, wrapped with basic auth when
// configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// Serve runs the HTTP server until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.Listen, Handler: s.Handler()}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Treat empty username or password as disabled.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health is always reachable for probes.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="calpane", charset="UTF-8"`)
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
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/day", s.handleDay)
	s.mux.HandleFunc("/nav", s.handleNav)
	s.mux.HandleFunc("/mode", s.handleMode)
	s.mux.HandleFunc("/calendar.ics", s.handleICS)
	s.mux.HandleFunc("/preview.png", s.handlePreview)
	s.mux.HandleFunc("/api/view", s.handleAPIView)
	s.mux.HandleFunc("/api/day", s.handleAPIDay)
	s.mux.HandleFunc("/api/photo", s.handleAPIPhoto)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// setError records a refresh failure for display; nil clears it.
func (s *Server) setError(err error) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if err == nil {
		s.lastError = ""
		s.lastKind = ""
		return
	}
	s.lastError = err.Error()
	s.lastKind = script.KindOf(err)
}

func (s *Server) currentError() (string, script.ErrorKind) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.lastError, s.lastKind
}

// pageData is the template model for the panel page.
type pageData struct {
	Mode     widget.Mode
	Subtitle string
	Cells    []cellDTO
	Agenda   []agendaDTO
	Photo    string

	// SetupNeeded flags a missing endpoint/token; the page shows a setup
	// hint instead of an error banner.
	SetupNeeded bool
	Error       string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	snap := s.ctrl.Snapshot()
	data := pageData{
		Mode:     snap.Mode,
		Subtitle: snap.Subtitle,
		Cells:    cellDTOs(snap.Cells),
		Agenda:   agendaDTOs(snap.Agenda),
	}
	if s.carousel != nil {
		data.Photo = s.carousel.Current()
	}
	if msg, kind := s.currentError(); msg != "" {
		if kind == script.KindConfigMissing {
			data.SetupNeeded = true
			data.Subtitle = "Setup needed"
		}
		data.Error = msg
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		appLog.Error("render index failed", err)
	}
}

// handleDay renders the day drawer: every event of one day, in bucket order.
func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("date")
	if key == "" {
		http.Error(w, "missing date", http.StatusBadRequest)
		return
	}

	events := s.ctrl.Day(key)
	data := struct {
		Key    string
		Title  string
		Count  int
		Events []eventDTO
	}{
		Key:    key,
		Title:  dayTitle(key),
		Count:  len(events),
		Events: eventDTOs(events),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "day.html", data); err != nil {
		appLog.Error("render day failed", err)
	}
}

// handleNav applies prev/next/today and redirects back to the panel.
// Refresh errors keep the previous state; the panel shows the message.
func (s *Server) handleNav(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var err error
	switch action := r.URL.Query().Get("action"); action {
	case "prev":
		err = s.ctrl.Prev(ctx)
	case "next":
		err = s.ctrl.Next(ctx)
	case "today":
		err = s.ctrl.Today(ctx)
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
		return
	}

	s.setError(err)
	if err != nil {
		appLog.Error("navigation refresh failed", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleMode switches the active view and redirects back to the panel.
func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	mode := widget.ParseMode(r.URL.Query().Get("view"))
	err := s.ctrl.SetMode(r.Context(), mode)
	s.setError(err)
	if err != nil {
		appLog.Error("mode switch refresh failed", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleICS exports the currently fetched events as an iCalendar feed.
func (s *Server) handleICS(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="calpane.ics"`)
	if err := export.WriteICS(w, s.ctrl.Events(), s.cfg.Location()); err != nil {
		appLog.Error("ics export failed", err)
	}
}

// handlePreview serves the last captured PNG from disk. http.ServeFile
// returns the appropriate status for missing files.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, s.previewPath)
}

// viewResponse is the JSON shape of /api/view.
type viewResponse struct {
	Mode      widget.Mode `json:"mode"`
	Subtitle  string      `json:"subtitle"`
	Cells     []cellDTO   `json:"cells,omitempty"`
	Agenda    []agendaDTO `json:"agenda,omitempty"`
	FetchedAt time.Time   `json:"fetched_at"`
	Error     string      `json:"error,omitempty"`
}

// cellDTO is a JSON/template-friendly day cell.
type cellDTO struct {
	Date       string `json:"date"`
	DayOfMonth int    `json:"day_of_month"`
	Muted      bool   `json:"muted"`
	Today      bool   `json:"today"`
	EventCount int    `json:"event_count"`
	Preview    string `json:"preview"`
	Empty      bool   `json:"empty"`
}

// agendaDTO is one agenda day group.
type agendaDTO struct {
	Date        string     `json:"date"`
	DateLabel   string     `json:"date_label"`
	Placeholder bool       `json:"placeholder,omitempty"`
	Events      []eventDTO `json:"events,omitempty"`
}

// eventDTO is a single rendered event line.
type eventDTO struct {
	Title     string `json:"title"`
	TimeLabel string `json:"time_label"`
	AllDay    bool   `json:"all_day"`
}

func (s *Server) handleAPIView(w http.ResponseWriter, _ *http.Request) {
	snap := s.ctrl.Snapshot()
	resp := viewResponse{
		Mode:      snap.Mode,
		Subtitle:  snap.Subtitle,
		Cells:     cellDTOs(snap.Cells),
		Agenda:    agendaDTOs(snap.Agenda),
		FetchedAt: snap.FetchedAt,
	}
	if msg, _ := s.currentError(); msg != "" {
		resp.Error = msg
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAPIDay(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("date")
	if key == "" {
		writeError(w, http.StatusBadRequest, "missing date")
		return
	}
	resp := struct {
		Date   string     `json:"date"`
		Events []eventDTO `json:"events"`
	}{
		Date:   key,
		Events: eventDTOs(s.ctrl.Day(key)),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAPIPhoto(w http.ResponseWriter, _ *http.Request) {
	var current string
	if s.carousel != nil {
		current = s.carousel.Current()
	}
	writeJSON(w, http.StatusOK, struct {
		Photo string `json:"photo,omitempty"`
	}{Photo: current})
}

func cellDTOs(cells []view.DayCell) []cellDTO {
	if cells == nil {
		return nil
	}
	out := make([]cellDTO, 0, len(cells))
	for _, c := range cells {
		out = append(out, cellDTO{
			Date:       c.Key,
			DayOfMonth: c.Date.Day(),
			Muted:      c.Muted,
			Today:      c.Today,
			EventCount: c.EventCount,
			Preview:    c.Preview,
			Empty:      c.Empty,
		})
	}
	return out
}

func agendaDTOs(groups []view.AgendaGroup) []agendaDTO {
	if groups == nil {
		return nil
	}
	out := make([]agendaDTO, 0, len(groups))
	for _, g := range groups {
		out = append(out, agendaDTO{
			Date:        g.Key,
			DateLabel:   g.DateLabel,
			Placeholder: g.Placeholder,
			Events:      eventDTOs(g.Events),
		})
	}
	return out
}

func eventDTOs(events []model.Event) []eventDTO {
	out := make([]eventDTO, 0, len(events))
	for _, ev := range events {
		out = append(out, eventDTO{
			Title:     ev.Title,
			TimeLabel: ev.TimeLabel,
			AllDay:    ev.AllDay,
		})
	}
	return out
}

// dayTitle renders a drawer heading like "Tuesday, Mar 5, 2024"; raw keys
// that fail to parse are shown as-is.
func dayTitle(key string) string {
	t, err := time.Parse("2006-01-02", key)
	if err != nil {
		return key
	}
	return t.Format("Monday, Jan 2, 2006")
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

// InitialRefresh performs the boot-time fetch and records any failure for
// the page banner. The server still starts when the first fetch fails; the
// user can retry by navigating.
func (s *Server) InitialRefresh(ctx context.Context) {
	err := s.ctrl.Refresh(ctx)
	s.setError(err)
	if err != nil {
		appLog.Error("initial refresh failed", err)
	}
}

// ScheduledRefresh is the cron callback: refetch the current window and keep
// the last error in sync.
func (s *Server) ScheduledRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.FetchTimeout()+5*time.Second)
	defer cancel()

	err := s.ctrl.Refresh(ctx)
	s.setError(err)
	if err != nil {
		appLog.Error("scheduled refresh failed", err)
		return
	}
	appLog.Debug("scheduled refresh complete")
}
