// Package api exposes the configured superframe layout to scheduling and
// MAC layers over HTTP/JSON. The server only ever reads a fully configured
// superframe, so no locking is needed; every out-of-range path parameter is
// rejected here before it can reach the core's contract-violation panics.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/KurtHennigar/sns3-satellite/core"
	"github.com/KurtHennigar/sns3-satellite/internal/logging"
	"github.com/KurtHennigar/sns3-satellite/internal/observability"
)

// Server serves the layout query surface for one configured superframe.
type Server struct {
	sf      *core.SuperframeConf
	log     logging.Logger
	metrics *observability.LayoutCollector
	router  *chi.Mux
}

// NewServer builds the router around a configured superframe. The metrics
// collector is optional; when nil, no /metrics endpoint is registered and
// no request metrics are recorded.
func NewServer(sf *core.SuperframeConf, log logging.Logger, metrics *observability.LayoutCollector) *Server {
	if log == nil {
		log = logging.Noop()
	}

	s := &Server{
		sf:      sf,
		log:     log,
		metrics: metrics,
		router:  chi.NewRouter(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves the layout API on addr until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	s.log.Info(context.Background(), "layout api listening", logging.String("addr", addr))
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) registerRoutes() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.requestLogger)
	if s.metrics != nil {
		s.router.Use(s.metrics.Middleware)
	}

	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/superframe", s.handleSuperframe)
	s.router.Get("/superframe/frames/{frameID}", s.handleFrame)
	s.router.Get("/superframe/carriers/{carrierID}", s.handleCarrier)
	s.router.Get("/superframe/carriers/{carrierID}/slots", s.handleCarrierSlots)
	s.router.Get("/superframe/ra-channels", s.handleRaChannels)
	s.router.Get("/superframe/ra-channels/{raChannel}", s.handleRaChannel)
	s.router.Get("/superframe/plot", s.handlePlot)

	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
}

// requestLogger attaches a request id to the context and logs one line per
// request at debug level.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, log := logging.WithRequestLogger(r.Context(), s.log)
		log.Debug(ctx, "layout api request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
		)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
