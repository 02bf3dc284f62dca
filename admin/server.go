// Package admin serves the optional HTTP surface of a dashboard session:
// JSON snapshots, toggle and alert intents, a websocket snapshot stream,
// Prometheus metrics and a liveness endpoint.
package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clusterwatch/cluster"
	"clusterwatch/engine"
	"clusterwatch/internal/ratelimit"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Controller is the session surface the admin server drives. *engine.Session
// satisfies it.
type Controller interface {
	Snapshot() *engine.Snapshot
	Subscribe(buffer int) (<-chan *engine.Snapshot, func())
	Toggle(ctx context.Context, g cluster.Group, index int) error
	MarkAlertsRead(ctx context.Context) (int, error)
	ClearAlerts(ctx context.Context) error
	DismissNotice(ctx context.Context) error
}

// Options tunes the admin server.
type Options struct {
	CORSOrigins    []string
	MaxStreams     int
	RequestTimeout time.Duration
	WriteTimeout   time.Duration
	// Gatherer backs /metrics; nil omits the route.
	Gatherer prometheus.Gatherer
	Logf     func(format string, args ...any)
}

// Server routes admin requests to a Controller.
type Server struct {
	ctrl     Controller
	opts     Options
	upgrader websocket.Upgrader
	streams  atomic.Int32
	// rejections throttles the log line for refused stream clients.
	rejections *ratelimit.Throttle
	router   chi.Router
}

// NewServer builds the router. Zero option values get conservative defaults.
func NewServer(ctrl Controller, opts Options) *Server {
	if opts.MaxStreams <= 0 {
		opts.MaxStreams = 32
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 5 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	if opts.Logf == nil {
		opts.Logf = func(string, ...any) {}
	}
	s := &Server{
		ctrl:       ctrl,
		opts:       opts,
		rejections: ratelimit.New(time.Minute),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
	if len(opts.CORSOrigins) > 0 {
		origins := opts.CORSOrigins
		s.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range origins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			return false
		}
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if len(s.opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.opts.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", s.handleHealth)
	if s.opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Route("/api", func(r chi.Router) {
		r.Get("/stream", s.handleStream)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.opts.RequestTimeout))
			r.Get("/state", s.handleState)
			r.Post("/alerts/read", s.handleMarkRead)
			r.Delete("/alerts", s.handleClearAlerts)
			r.Delete("/notice", s.handleDismissNotice)
			r.Post("/{group}/{index}/toggle", s.handleToggle)
		})
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.opts.Logf("Admin: listening on %s", addr)
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("admin shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("admin listen %s: %w", addr, err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}

// intentStatus maps an intent error to an HTTP status.
func intentStatus(err error) int {
	switch {
	case errors.Is(err, cluster.ErrInvalidIndex):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrSessionClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "UP"})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	snap := s.ctrl.Snapshot()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, engine.ErrSessionClosed)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	group, ok := cluster.ParseGroup(chi.URLParam(r, "group"))
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: %q", cluster.ErrUnknownGroup, chi.URLParam(r, "group")))
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %q", cluster.ErrInvalidIndex, chi.URLParam(r, "index")))
		return
	}
	if err := s.ctrl.Toggle(r.Context(), group, index); err != nil {
		writeError(w, intentStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	changed, err := s.ctrl.MarkAlertsRead(r.Context())
	if err != nil {
		writeError(w, intentStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"marked": changed})
}

func (s *Server) handleClearAlerts(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.ClearAlerts(r.Context()); err != nil {
		writeError(w, intentStatus(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDismissNotice(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.DismissNotice(r.Context()); err != nil {
		writeError(w, intentStatus(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
