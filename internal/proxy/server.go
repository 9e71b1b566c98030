// Package proxy serves the browser-facing /api routes. Each route validates
// its input, forwards to the AI backend with a bounded wait, and translates
// the outcome into a JSON answer.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/Prathap331/SB-Next/internal/backend"
	"github.com/Prathap331/SB-Next/internal/config"
	"github.com/Prathap331/SB-Next/internal/logging"
)

const shutdownTimeout = 10 * time.Second

// Server is the proxy HTTP server.
type Server struct {
	ctx     context.Context
	cfg     *config.Config
	backend *backend.Client
	router  *chi.Mux
	now     func() time.Time
}

// New builds the router. ctx carries the base logger.
func New(ctx context.Context, cfg *config.Config, b *backend.Client) *Server {
	s := &Server{
		ctx:     ctx,
		cfg:     cfg,
		backend: b,
		now:     time.Now,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(s.requestLogger)
	router.Use(instrument)
	router.Use(recoverer)

	router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api", func(r chi.Router) {
		if s.cfg.Server.RateLimit > 0 {
			burst := s.cfg.Server.RateBurst
			if burst <= 0 {
				burst = 1
			}
			r.Use(rateLimit(rate.NewLimiter(rate.Limit(s.cfg.Server.RateLimit), burst)))
		}

		r.Get("/process-topic", s.handleProcessTopicStatus)
		r.Post("/process-topic", s.handleProcessTopic)
		r.Post("/generate-script", s.handleGenerateScript)

		r.Route("/payments", func(r chi.Router) {
			r.Get("/webhook", s.handleWebhookStatus)
			r.Post("/webhook", s.handleWebhook)
			r.Post("/create-order", s.handleCreateOrder)
		})

		r.Get("/backend/health", s.handleBackendHealth)
		r.Get("/pricing", s.handlePricing)
		r.Get("/site", s.handleSite)
	})

	return router
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Server.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Server.Listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	logger := logging.Get(ctx)

	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", ln.Addr().String()).
			Str("backend", s.backend.BaseURL()).
			Msg("serving storybit API")
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down storybit API")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		<-serverErr
		return nil
	case err, ok := <-serverErr:
		if !ok {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	}
}
