// Package http exposes the FX engine over a JSON HTTP surface under
// /api/v1/fx/, with request logging, timeouts and Prometheus metrics.
package http

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/fintaar/crossrail/internal/config"
	"github.com/fintaar/crossrail/internal/interfaces/http/handlers"
)

// basePath prefixes every API route.
const basePath = "/api/v1/fx"

// Server is the HTTP front of the engine.
type Server struct {
	router   *mux.Router
	server   *http.Server
	handlers *handlers.Handlers
	metrics  *handlers.Metrics
	cfg      config.ServerConfig
}

// NewServer builds the router and binds all routes.
func NewServer(cfg config.ServerConfig, h *handlers.Handlers, metrics *handlers.Metrics) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		handlers: h,
		metrics:  metrics,
		cfg:      cfg,
	}
	s.setupRoutes()
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)
	s.router.Use(s.metricsMiddleware)
	s.router.Use(s.timeoutMiddleware)
	s.router.Use(s.corsMiddleware)

	s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	s.router.HandleFunc("/health", s.handlers.Health).Methods("GET")

	api := s.router.PathPrefix(basePath).Subrouter()
	api.Use(s.jsonContentTypeMiddleware)

	api.HandleFunc("/routing/recommend", s.handlers.Recommend).Methods("POST")
	api.HandleFunc("/routing/treasury-rates", s.handlers.TreasuryRates).Methods("GET")
	api.HandleFunc("/routing/providers", s.handlers.Providers).Methods("GET")
	api.HandleFunc("/routing/stream", s.handlers.StreamRates).Methods("GET")

	api.HandleFunc("/multi-rail/route", s.handlers.MultiRailRoute).Methods("POST")
	api.HandleFunc("/multi-rail/cbdc", s.handlers.CBDCs).Methods("GET")
	api.HandleFunc("/multi-rail/stablecoins", s.handlers.Stablecoins).Methods("GET")

	api.HandleFunc("/pricing/quote", s.handlers.Quote).Methods("POST")
	api.HandleFunc("/pricing/segments", s.handlers.Segments).Methods("GET")
	api.HandleFunc("/pricing/tiers", s.handlers.Tiers).Methods("GET")

	api.HandleFunc("/deals", s.handlers.ListDeals).Methods("GET")
	api.HandleFunc("/deals", s.handlers.CreateDeal).Methods("POST")
	api.HandleFunc("/deals/best-rate", s.handlers.BestRate).Methods("GET")
	api.HandleFunc("/deals/{id}", s.handlers.GetDeal).Methods("GET")
	api.HandleFunc("/deals/{id}", s.handlers.UpdateDeal).Methods("PUT")
	api.HandleFunc("/deals/{id}/submit", s.handlers.SubmitDeal).Methods("POST")
	api.HandleFunc("/deals/{id}/approve", s.handlers.ApproveDeal).Methods("POST")
	api.HandleFunc("/deals/{id}/reject", s.handlers.RejectDeal).Methods("POST")
	api.HandleFunc("/deals/{id}/cancel", s.handlers.CancelDeal).Methods("POST")
	api.HandleFunc("/deals/{id}/utilize", s.handlers.UtilizeDeal).Methods("POST")
	api.HandleFunc("/deals/{id}/audit", s.handlers.DealAudit).Methods("GET")
	api.HandleFunc("/deals/{id}/utilizations", s.handlers.DealUtilizations).Methods("GET")

	api.HandleFunc("/rules", s.handlers.ListRules).Methods("GET")
	api.HandleFunc("/rules", s.handlers.CreateRule).Methods("POST")
	api.HandleFunc("/rules/{id}", s.handlers.DeleteRule).Methods("DELETE")
	api.HandleFunc("/rules/{id}/toggle", s.handlers.ToggleRule).Methods("POST")

	api.HandleFunc("/admin/reload", s.handlers.ReloadReferenceData).Methods("POST")
	api.HandleFunc("/admin/providers", s.handlers.CreateProvider).Methods("POST")
	api.HandleFunc("/admin/providers/{id}", s.handlers.DeleteProvider).Methods("DELETE")

	s.router.NotFoundHandler = http.HandlerFunc(s.handlers.NotFound)
}

// requestIDMiddleware tags every request with a short id.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()[:8]
		ctx := context.WithValue(r.Context(), handlers.RequestIDKey(), requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLoggingMiddleware logs every request with its outcome.
func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		requestID, _ := r.Context().Value(handlers.RequestIDKey()).(string)
		log.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("http request")
	})
}

// metricsMiddleware records request latency by route template.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		s.metrics.RequestDuration.
			WithLabelValues(route, strconv.Itoa(wrapper.statusCode)).
			Observe(time.Since(start).Seconds())
	})
}

// timeoutMiddleware bounds request handling time. The rate stream
// manages its own lifetime.
func (s *Server) timeoutMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/routing/stream") {
			next.ServeHTTP(w, r)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// corsMiddleware allows browser dashboards on local origins.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1") {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// jsonContentTypeMiddleware sets the JSON content type for API routes.
func (s *Server) jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/routing/stream") {
			w.Header().Set("Content-Type", "application/json")
		}
		next.ServeHTTP(w, r)
	})
}

// Router exposes the handler tree, used by tests.
func (s *Server) Router() http.Handler { return s.router }

// Start blocks serving requests until Shutdown or a listener error.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("http server starting")
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("http server shutting down")
	return s.server.Shutdown(ctx)
}

// responseWrapper captures status codes for logging and metrics.
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrade reach the raw connection.
func (rw *responseWrapper) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}
