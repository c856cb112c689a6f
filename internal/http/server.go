package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/commute-matching/internal/dispatch"
	"github.com/example/commute-matching/internal/matcher"
	"github.com/example/commute-matching/internal/models"
	"github.com/example/commute-matching/internal/zone"
)

// StatusPublisher forwards availability updates to the status stream.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, st models.DriverStatus) error
}

// StatusApplier writes availability updates straight to the directory.
type StatusApplier interface {
	ApplyStatus(ctx context.Context, st models.DriverStatus) error
}

type Options struct {
	Matcher   *matcher.Service
	Zones     *zone.Classifier
	Publisher StatusPublisher // optional; Directory is used when nil
	Directory StatusApplier
	WSReg     *dispatch.WSRegistry
	JWTSecret string // admin routes are open when empty
	Logger    *slog.Logger
}

type Server struct {
	matcher   *matcher.Service
	zones     *zone.Classifier
	publisher StatusPublisher
	directory StatusApplier
	wsreg     *dispatch.WSRegistry
	secret    []byte
	logger    *slog.Logger
	mux       *mux.Router
}

func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	wsreg := opts.WSReg
	if wsreg == nil {
		wsreg = dispatch.NewWSRegistry()
	}
	s := &Server{
		matcher:   opts.Matcher,
		zones:     opts.Zones,
		publisher: opts.Publisher,
		directory: opts.Directory,
		wsreg:     wsreg,
		secret:    []byte(opts.JWTSecret),
		logger:    logger,
		mux:       mux.NewRouter(),
	}
	if len(s.secret) == 0 {
		logger.Warn("JWT secret not configured, admin routes are unauthenticated")
	}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.mux.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/drivers/search", s.adminOnly(s.handleSearch)).Methods(http.MethodPost)
	api.HandleFunc("/drivers/recommend", s.adminOnly(s.handleRecommend)).Methods(http.MethodPost)
	api.HandleFunc("/assignments", s.adminOnly(s.handleAssign)).Methods(http.MethodPost)
	api.HandleFunc("/assignments/{id}", s.adminOnly(s.handleGetAssignment)).Methods(http.MethodGet)
	api.HandleFunc("/eta", s.handleETA).Methods(http.MethodPost)
	api.HandleFunc("/zones", s.handleZones).Methods(http.MethodGet)
	api.HandleFunc("/zones/classify", s.handleClassify).Methods(http.MethodGet)

	s.mux.HandleFunc("/internal/drivers/{driver_id}/availability", s.handleAvailability).Methods(http.MethodPut)
	s.mux.HandleFunc("/ws/drivers/{driver_id}", s.handleWS)
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }
