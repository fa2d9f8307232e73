package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/coindeck/internal/cache"
	"github.com/coindeck/internal/gateway"
	"github.com/coindeck/internal/messaging"
	"github.com/coindeck/pkg/config"
	"github.com/coindeck/pkg/models"
)

// userFacingError is the static message returned to clients on any
// gateway failure. Diagnostics travel in the details field and the
// server log, never in this string.
const userFacingError = "Unable to load cryptocurrency prices right now. Please try again later."

// cacheControl permits a 60-second shared cache with background
// revalidation on successful responses.
const cacheControl = "public, s-maxage=60, stale-while-revalidate=120"

// Server represents the HTTP API server
type Server struct {
	cfg        *config.Config
	logger     *logrus.Logger
	router     *mux.Router
	httpServer *http.Server

	gw         *gateway.Gateway
	redisCache *cache.RedisClient
	natsClient *messaging.NATSClient
}

// NewServer creates a new API server. redisCache and natsClient may be
// nil when the optional backends are disabled.
func NewServer(
	cfg *config.Config,
	logger *logrus.Logger,
	gw *gateway.Gateway,
	redisCache *cache.RedisClient,
	natsClient *messaging.NATSClient,
) *Server {
	s := &Server{
		cfg:        cfg,
		logger:     logger,
		gw:         gw,
		redisCache: redisCache,
		natsClient: natsClient,
	}

	s.setupRoutes()

	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()

	// Middleware must be applied before route definitions.
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.recoveryMiddleware)

	if s.cfg.Server.CORSEnabled {
		s.router.Use(s.corsMiddleware)
	}

	s.router.HandleFunc("/api/crypto", s.handleGetCrypto).Methods("GET")
	s.router.HandleFunc("/api/crypto", s.handleCryptoPreflight).Methods("OPTIONS")

	apiV1 := s.router.PathPrefix("/api/v1").Subrouter()
	apiV1.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	s.logger.WithField("address", addr).Info("Starting HTTP server")

	return s.httpServer.ListenAndServe()
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Middleware functions

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		s.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   wrapped.statusCode,
			"duration": time.Since(start),
			"remote":   r.RemoteAddr,
		}).Info("HTTP request")
	})
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.WithFields(logrus.Fields{
					"error": err,
					"path":  r.URL.Path,
				}).Error("Panic recovered")

				writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{
					Error: userFacingError,
				})
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	// IgnoreOptions lets OPTIONS fall through to the explicit preflight
	// handler, which owns the Access-Control-Allow-Methods contract.
	return handlers.CORS(
		handlers.AllowedOrigins(s.cfg.Server.CORSOrigins),
		handlers.AllowedMethods([]string{"GET"}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
		handlers.IgnoreOptions(),
	)(next)
}

// Handler functions

// handleGetCrypto serves the top-N asset envelope.
func (s *Server) handleGetCrypto(w http.ResponseWriter, r *http.Request) {
	env, err := s.gw.FetchTopAssets(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("Gateway fetch failed")
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{
			Error:   userFacingError,
			Details: err.Error(),
		})
		return
	}

	w.Header().Set("Cache-Control", cacheControl)
	writeJSON(w, http.StatusOK, env)
}

// handleCryptoPreflight answers cross-origin preflights, advertising
// GET as the only allowed method. The CORS middleware ignores OPTIONS,
// so this handler owns the whole preflight response.
func (s *Server) handleCryptoPreflight(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Methods", "GET")
	if s.cfg.Server.CORSEnabled && len(s.cfg.Server.CORSOrigins) > 0 {
		w.Header().Set("Access-Control-Allow-Origin", s.cfg.Server.CORSOrigins[0])
	}
	w.WriteHeader(http.StatusOK)
}

// handleHealth reports connectivity of the optional backends.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	redisHealthy := false
	if s.redisCache != nil {
		redisHealthy = s.redisCache.Health(r.Context()) == nil
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"services": map[string]bool{
			"redis": redisHealthy,
			"nats":  s.natsClient != nil && s.natsClient.IsConnected(),
		},
		"timestamp": time.Now().Unix(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
