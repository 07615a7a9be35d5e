package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"zentrack/internal/api"
	"zentrack/internal/cache"
	"zentrack/internal/config"
	"zentrack/internal/dashboard"
	applog "zentrack/internal/log"
	"zentrack/internal/middleware/ratelimit"
	"zentrack/internal/middleware/security"
	"zentrack/internal/middleware/trace"
	"zentrack/internal/session"
	appweb "zentrack/web"
)

// Server wires the session gate, the dashboard service and the remote
// backend behind a server-rendered HTML interface.
type Server struct {
	http.Server

	cfg       config.Config
	logger    *applog.Logger
	templates *template.Template

	backend   api.Backend
	gate      *session.Gate
	exchanger *session.Exchanger
	handoffs  *session.HandoffStore
	dash      *dashboard.Service
	tracker   *dashboard.Tracker

	limiter   *ratelimit.Limiter
	extractor *security.ClientIPExtractor

	sweeper      *cache.Manager
	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(cfg config.Config, backend api.Backend, logger *applog.Logger) (*Server, error) {
	s := &Server{
		cfg:       cfg,
		logger:    logger.WithComponent(applog.ComponentHTTP),
		backend:   backend,
		handoffs:  session.NewHandoffStore(0),
		extractor: security.NewClientIPExtractor(),
	}
	s.exchanger = session.NewExchanger(backend, s.handoffs, logger.WithComponent(applog.ComponentSession).Logger)
	s.gate = session.NewGate(backend, s.handoffs, logger.WithComponent(applog.ComponentSession).Logger)
	s.dash = dashboard.NewService(backend, backend, backend, backend, logger.WithComponent(applog.ComponentDashboard).Logger)
	s.tracker = dashboard.NewTracker()
	s.limiter = ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: cfg.RateLimitPerMinute,
	})

	t, err := template.New("zentrack").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	s.templates = t

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssets(3600)(static))
	} else {
		s.logger.Warn("failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /login", s.handleLogin)
	mux.HandleFunc("POST /auth/callback", s.handleAuthCallback)
	mux.HandleFunc("POST /auth/logout", s.handleLogout)

	mux.HandleFunc("GET /dashboard", s.handleDashboard)
	mux.HandleFunc("GET /ui/dashboard", s.handleDashboardContent)
	mux.HandleFunc("GET /export/csv", s.handleExportCSV)

	mux.HandleFunc("POST /expenses", s.handleCreateExpense)
	mux.HandleFunc("PUT /expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("POST /categories", s.handleCreateCategory)
	mux.HandleFunc("DELETE /categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("POST /budgets", s.handleSetBudget)

	tracer := trace.NewMiddleware(logger, s.extractor.ExtractClientIP)
	headers := security.Headers(security.DefaultHeadersConfig())
	limited := s.limiter.Middleware(s.extractor.ExtractClientIP)

	s.Server = http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           tracer.Middleware(headers(limited(mux))),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Expired handoff tokens, exchange outcomes and idle visitor state all
	// drain through one sweep.
	s.sweeper = cache.NewManager(s.logger.Logger)
	s.sweeper.Register(s.handoffs)
	s.sweeper.Register(s.exchanger)
	s.sweeper.Register(staleVisitorCleaner{s.tracker})
	s.sweeper.StartCleanup(time.Minute)

	return s, nil
}

// staleVisitorCleaner adapts the tracker to the sweep interface.
type staleVisitorCleaner struct {
	tracker *dashboard.Tracker
}

func (c staleVisitorCleaner) CleanExpired() int {
	return c.tracker.CleanExpired(30 * time.Minute)
}

// Shutdown stops the maintenance goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.sweeper.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
