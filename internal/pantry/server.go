package pantry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zombor/pantry-scanner/internal/auth"
	"github.com/zombor/pantry-scanner/internal/logging"
)

// DefaultMaxUploadBytes bounds the size of an uploaded receipt image
const DefaultMaxUploadBytes = 20 << 20

// ServerConfig holds HTTP-level settings
type ServerConfig struct {
	CORSOrigin     string
	MaxUploadBytes int64
}

// Server handles HTTP requests for scans and profiles
type Server struct {
	service  *Service
	verifier auth.Verifier
	config   ServerConfig
	mux      *http.ServeMux
	handler  http.Handler
}

// NewServer creates a new Server with default mux
func NewServer(service *Service, verifier auth.Verifier, config ServerConfig) *Server {
	return NewServerWithMux(service, verifier, config, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, verifier auth.Verifier, config ServerConfig, mux *http.ServeMux) *Server {
	if config.CORSOrigin == "" {
		config.CORSOrigin = "*"
	}
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = DefaultMaxUploadBytes
	}

	s := &Server{
		service:  service,
		verifier: verifier,
		config:   config,
		mux:      mux,
	}
	s.registerRoutes()
	s.handler = s.corsMiddleware(s.mux)
	return s
}

// corsMiddleware adds CORS headers to every response and answers preflight requests
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.config.CORSOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requireAuth verifies the bearer token and puts the user ID on the request context
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.BearerToken(r)
		var userID string
		if err == nil {
			userID, err = s.verifier.Verify(r.Context(), token)
		}
		if err != nil {
			slog.Warn("Rejected unauthenticated request", "path", r.URL.Path, "error", err)
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r.WithContext(auth.WithUser(r.Context(), userID)))
	}
}

// registerRoutes registers all API routes on the server's mux
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /{$}", s.handleHealth)

	s.mux.HandleFunc("POST /scan", s.requireAuth(s.handleScan))
	s.mux.HandleFunc("GET /pantry", s.requireAuth(s.handleListPantry))

	s.mux.HandleFunc("GET /profile", s.requireAuth(s.handleGetProfile))
	s.mux.HandleFunc("POST /protein-target", s.requireAuth(s.handleUpdateProteinTarget))
}

// Run serves HTTP on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           logging.RequestLogger(slog.Default())(s),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Starting server", "address", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
