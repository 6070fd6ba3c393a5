// Package web serves the site: the gated page, the affordance dispatcher
// and a small JSON API over the same gate sessions.
package web

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/robfig/cron/v3"

	"github.com/roach88/lwgate/internal/carousel"
	"github.com/roach88/lwgate/internal/catalog"
	"github.com/roach88/lwgate/internal/config"
	"github.com/roach88/lwgate/internal/metrics"
)

// sweepSchedule is how often idle sessions are swept from stores that
// support it.
const sweepSchedule = "@every 10m"

// Sweeper is implemented by session stores that expire idle sessions.
type Sweeper interface {
	Sweep(ctx context.Context, ttl time.Duration) (int64, error)
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSessionIDs sets the session id generator. Defaults to UUIDGenerator.
func WithSessionIDs(g SessionIDGenerator) Option {
	return func(s *Server) {
		if g != nil {
			s.ids = g
		}
	}
}

// WithMetrics sets the collectors. Defaults to a fresh registry.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithFetcher sets the catalog fetcher.
func WithFetcher(f *catalog.Fetcher) Option {
	return func(s *Server) {
		if f != nil {
			s.fetcher = f
		}
	}
}

// WithClock sets the time source used for the footer year.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// Server is the site HTTP server.
type Server struct {
	cfg        *config.Config
	stores     SessionStores
	cookies    *sessions.CookieStore
	ids        SessionIDGenerator
	fetcher    *catalog.Fetcher
	renderer   *catalog.Renderer
	page       *template.Template
	carousel   *carousel.Carousel
	metrics    *metrics.Metrics
	dispatcher *Dispatcher
	logger     *slog.Logger
	now        func() time.Time
}

// New builds a server over cfg. Gate sessions are kept in stores.
func New(cfg *config.Config, stores SessionStores, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s := &Server{
		cfg:      cfg,
		stores:   stores,
		ids:      UUIDGenerator{},
		carousel: carousel.New(cfg.Carousel.Slides),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.NewRegistry(false)
	}
	if s.fetcher == nil {
		s.fetcher = catalog.NewFetcher(
			catalog.WithTimeout(cfg.Catalog.Timeout),
			catalog.WithLogger(s.logger),
		)
	}

	secret := []byte(cfg.Session.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		s.logger.Warn("no session secret configured, sessions will not survive a restart")
	}
	s.cookies = newCookieStore(secret, cfg.Session.Secure)

	renderer, err := catalog.NewRenderer(promptForm)
	if err != nil {
		return nil, err
	}
	s.renderer = renderer

	page, err := parsePageTemplate()
	if err != nil {
		return nil, err
	}
	s.page = page

	s.dispatcher = NewDispatcher()
	s.registerActions()

	return s, nil
}

// Dispatcher returns the affordance dispatch table.
func (s *Server) Dispatcher() *Dispatcher {
	return s.dispatcher
}

// Carousel returns the featured slide carousel.
func (s *Server) Carousel() *carousel.Carousel {
	return s.carousel
}

// Handler returns the routed handler with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handlePage)
	mux.HandleFunc("POST /action/{id}", s.handleAction)
	mux.HandleFunc("GET /go/{link}", s.handleGo)
	mux.HandleFunc("GET /api/machine-code", s.handleMachineCode)
	mux.HandleFunc("POST /api/verify", s.handleVerify)
	mux.HandleFunc("GET /api/catalog", s.handleCatalog)
	mux.HandleFunc("GET /api/carousel", s.handleCarousel)
	mux.Handle("GET /metrics", s.metrics.Handler())
	return s.logRequests(mux)
}

// Run listens on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Server.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
// The carousel rotator and the session sweeper run for the server's lifetime.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	rotator, err := carousel.NewRotator(s.carousel, s.cfg.Carousel.Interval,
		carousel.OnTick(func(idx int) { s.metrics.CarouselIndex.Set(float64(idx)) }),
		carousel.WithRotatorLogger(s.logger),
	)
	if err != nil {
		_ = ln.Close()
		return err
	}
	rotator.Start()
	defer rotator.Stop()

	if sw, ok := s.stores.(Sweeper); ok {
		sweeper := cron.New()
		if _, err := sweeper.AddFunc(sweepSchedule, func() { s.sweep(ctx, sw) }); err != nil {
			_ = ln.Close()
			return fmt.Errorf("schedule session sweep: %w", err)
		}
		sweeper.Start()
		defer func() { <-sweeper.Stop().Done() }()
	}

	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.ReadTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting web server", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutdown signal received, gracefully stopping web server")
	timeout := s.cfg.Server.WriteTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	<-errCh

	s.logger.Info("web server stopped")
	return nil
}

func (s *Server) sweep(ctx context.Context, sw Sweeper) {
	n, err := sw.Sweep(ctx, s.cfg.Session.TTL)
	if err != nil {
		s.logger.Warn("session sweep failed", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("swept idle sessions", "count", n)
	}
}

// loadCatalog fetches the catalog, folding failures into an empty list.
func (s *Server) loadCatalog(ctx context.Context) []catalog.Item {
	items, err := s.fetcher.FetchErr(ctx, s.cfg.Catalog.Source)
	s.metrics.ObserveFetch(err)
	if err != nil {
		s.logger.Warn("catalog unavailable, rendering empty", "source", s.cfg.Catalog.Source, "error", err)
		return []catalog.Item{}
	}
	return items
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
