package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	emilog "emipilot/internal/log"
	"emipilot/internal/middleware/ratelimit"
	"emipilot/internal/middleware/security"
	"emipilot/internal/middleware/trace"
	"emipilot/internal/services"
)

// Options configures the API server.
type Options struct {
	Addr              string
	APIPrefix         string
	CORSAllowedOrigin string

	// WriteRequestsPerMinute limits POST, PUT and DELETE per client IP.
	WriteRequestsPerMinute int

	Logger *emilog.Logger
}

// Server serves the JSON API.
type Server struct {
	http.Server
	emis     *services.EMIService
	income   *services.IncomeService
	insights *services.InsightService

	limiter      *ratelimit.Limiter
	tracer       *trace.Middleware
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(opts Options, emis *services.EMIService, income *services.IncomeService, insights *services.InsightService) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = emilog.New(emilog.DefaultConfig())
	}
	logger = logger.WithComponent(emilog.ComponentHTTP)

	s := &Server{
		emis:     emis,
		income:   income,
		insights: insights,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.WriteRequestsPerMinute,
		}),
		tracer: trace.NewMiddleware(logger, security.ClientIP, handleInternalError),
	}

	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(handleRouteNotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(handleMethodNotAllowed)

	api := router.PathPrefix(strings.TrimRight(opts.APIPrefix, "/")).Subrouter()
	api.NotFoundHandler = router.NotFoundHandler
	api.MethodNotAllowedHandler = router.MethodNotAllowedHandler

	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api.HandleFunc("/emis", s.handleListEMIs).Methods(http.MethodGet)
	api.HandleFunc("/emis", s.handleCreateEMI).Methods(http.MethodPost)
	api.HandleFunc("/emis/summary/all", s.handleSummary).Methods(http.MethodGet)
	api.HandleFunc("/emis/timeline", s.handleTimeline).Methods(http.MethodGet)
	api.HandleFunc("/emis/{id:[0-9]+}", s.handleGetEMI).Methods(http.MethodGet)
	api.HandleFunc("/emis/{id:[0-9]+}", s.handleUpdateEMI).Methods(http.MethodPut)
	api.HandleFunc("/emis/{id:[0-9]+}", s.handleDeleteEMI).Methods(http.MethodDelete)

	api.HandleFunc("/user/income", s.handleGetIncome).Methods(http.MethodGet)
	api.HandleFunc("/user/income", s.handleUpdateIncome).Methods(http.MethodPost)

	api.HandleFunc("/insights", s.handleInsights).Methods(http.MethodGet)
	api.HandleFunc("/insights/stress", s.handleStress).Methods(http.MethodGet)

	// CORS wraps the router so preflights never reach route matching.
	var handler http.Handler = router
	handler = s.limiter.Middleware(security.ClientIP, handleRateLimited,
		http.MethodPost, http.MethodPut, http.MethodDelete)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = security.CORS(security.DefaultCORSConfig(opts.CORSAllowedOrigin))(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// Metrics returns request counters for the admin log line on shutdown.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}
