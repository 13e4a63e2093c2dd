package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/docnav/internal/content"
	"github.com/dgallion1/docnav/internal/logfields"
	"github.com/dgallion1/docnav/internal/metrics"
	"github.com/dgallion1/docnav/internal/navigation"
	"github.com/dgallion1/docnav/internal/render"
	"github.com/dgallion1/docnav/internal/routes"
	"github.com/dgallion1/docnav/internal/session"
	"github.com/dgallion1/docnav/internal/topics"
)

// Reloader re-reads the manifest and applies it through Server.Apply.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Options wires the server's collaborators.
type Options struct {
	Fetcher     content.Fetcher
	Renderer    render.Renderer
	Recorder    metrics.Recorder
	Metrics     http.Handler // nil disables /metrics
	AdminAPIKey string
	SessionTTL  time.Duration
	Logger      *slog.Logger
}

// Server is the docs site: rendered pages under the route table plus the JSON
// and admin API.
type Server struct {
	router   chi.Router
	sessions *session.Store
	fetcher  content.Fetcher
	renderer render.Renderer
	rec      metrics.Recorder
	log      *slog.Logger
	opts     Options

	site atomic.Pointer[site]
	// applyMu keeps sessions and the page router on the same manifest.
	applyMu sync.Mutex

	reloadMu sync.Mutex
	reloader Reloader
}

// site is everything derived from one manifest. It is replaced as a whole.
type site struct {
	manifest *topics.Manifest
	table    []routes.Spec
	pages    http.Handler
}

// NewServer builds a server for m.
func NewServer(m *topics.Manifest, opts Options) (*Server, error) {
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	s := &Server{
		fetcher:  opts.Fetcher,
		renderer: opts.Renderer,
		rec:      opts.Recorder,
		log:      opts.Logger,
		opts:     opts,
	}
	s.sessions = session.NewStore(opts.SessionTTL, s.factory(m), opts.Recorder, opts.Logger)
	if err := s.install(m); err != nil {
		return nil, err
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Sessions exposes the session store so the caller can run its janitor.
func (s *Server) Sessions() *session.Store {
	return s.sessions
}

// SetReloader enables POST /api/admin/reload.
func (s *Server) SetReloader(r Reloader) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()
	s.reloader = r
}

// Manifest returns the manifest currently served.
func (s *Server) Manifest() *topics.Manifest {
	return s.site.Load().manifest
}

// Routes returns the current route table.
func (s *Server) Routes() []routes.Spec {
	return s.site.Load().table
}

// Apply switches the server to m: live sessions are moved onto it, the page
// routes are rebuilt and cached renders are dropped.
func (s *Server) Apply(ctx context.Context, m *topics.Manifest) error {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	if err := s.sessions.Reload(ctx, m, s.factory(m)); err != nil {
		s.log.Warn("some sessions kept the previous manifest", logfields.Error(err))
	}
	if err := s.install(m); err != nil {
		return err
	}
	if f, ok := s.renderer.(interface{ Flush() }); ok {
		f.Flush()
	}
	return nil
}

func (s *Server) factory(m *topics.Manifest) session.Factory {
	return func(initialURL string) (*navigation.Coordinator, error) {
		return navigation.NewCoordinator(m, navigation.Options{
			InitialURL: initialURL,
			Recorder:   s.rec,
			Logger:     s.log,
		})
	}
}

// install compiles m's route table into a fresh page router and swaps it in.
func (s *Server) install(m *topics.Manifest) error {
	start := time.Now()
	table := routes.FromManifest(m)
	pages, err := s.pageRouter(m, table)
	if err != nil {
		return err
	}
	s.site.Store(&site{manifest: m, table: table, pages: pages})

	n := routes.Count(table)
	s.rec.ObserveRouteBuild(time.Since(start), n)
	s.log.Info("routes installed", logfields.Routes(n))
	return nil
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log, s.rec))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	if s.opts.Metrics != nil {
		r.Handle("/metrics", s.opts.Metrics)
	}

	r.Get("/api/selection", s.handleSelection)
	r.Post("/api/navigate", s.handleNavigate)
	r.Get("/api/catalog/{kind}", s.handleCatalog)
	r.Get("/api/routes", s.handleRoutes)

	// Admin endpoints.
	r.Group(func(r chi.Router) {
		if s.opts.AdminAPIKey != "" {
			r.Use(AuthMiddleware(s.opts.AdminAPIKey, s.log))
		}
		r.Post("/api/admin/reload", s.handleReload)
		r.Get("/api/admin/sessions", s.handleSessions)
	})

	r.Get("/", s.handleRoot)
	r.Get("/nav/{kind}/{value}", s.handleNav)

	// Everything else belongs to the current page router.
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		// Drop the outer routing context so the page router starts fresh.
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, nil))
		s.site.Load().pages.ServeHTTP(w, r)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
