package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bikenearby/backend-go/internal/api"
	"github.com/bikenearby/backend-go/internal/config"
	"github.com/bikenearby/backend-go/internal/handler"
	"github.com/bikenearby/backend-go/internal/images"
	"github.com/bikenearby/backend-go/internal/metrics"
	"github.com/bikenearby/backend-go/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

// SnapshotSource reports whether a snapshot has been published yet.
type SnapshotSource interface {
	Current() *models.Snapshot
}

type Server struct {
	cfg        *config.Config
	router     *chi.Mux
	httpServer *http.Server
	stations   *handler.StationsHandler
	snapshots  SnapshotSource
	staticDir  string
}

// New wires the routes. When catalog is a *images.LocalCatalog its
// directory is also served under /static/image/.
func New(cfg *config.Config, stations *handler.StationsHandler, snapshots SnapshotSource, catalog images.Catalog) *Server {
	s := &Server{
		cfg:       cfg,
		router:    chi.NewRouter(),
		stations:  stations,
		snapshots: snapshots,
	}
	if local, ok := catalog.(*images.LocalCatalog); ok {
		s.staticDir = local.Dir()
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/nearby_stations", s.stations.NearbyStations)
	r.Get("/all_stations", s.stations.AllStations)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", s.ready)
	r.Handle("/metrics", metrics.Handler())

	if s.staticDir != "" {
		log.Info().Str("dir", s.staticDir).Msg("Serving station images")
		fileServer := http.StripPrefix("/"+images.StaticPrefix, http.FileServer(http.Dir(s.staticDir)))
		r.Handle("/"+images.StaticPrefix+"*", fileServer)
	}
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshots.Current()
	if snap == nil {
		api.Error(w, "No station data available", http.StatusServiceUnavailable)
		return
	}
	api.Success(w, map[string]interface{}{
		"status":   "ready",
		"version":  snap.Version(),
		"stations": snap.Len(),
	})
}

// ListenAndServe blocks until the server stops. It serves TLS when a
// certificate and key are configured.
func (s *Server) ListenAndServe() error {
	var err error
	if s.cfg.TLSEnabled() {
		log.Info().Str("addr", s.httpServer.Addr).Msg("Listening with TLS")
		err = s.httpServer.ListenAndServeTLS(s.cfg.TLSCertFile, s.cfg.TLSKeyFile)
	} else {
		log.Info().Str("addr", s.httpServer.Addr).Msg("Listening")
		err = s.httpServer.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("Request")
	})
}
