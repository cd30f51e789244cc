package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/smazurov/nodepower/internal/api/models"
	"github.com/smazurov/nodepower/internal/events"
	"github.com/smazurov/nodepower/internal/led"
	"github.com/smazurov/nodepower/internal/logging"
	"github.com/smazurov/nodepower/internal/power"
	"github.com/smazurov/nodepower/internal/version"
)

// PowerController is the hardware surface the API drives.
// *power.Controller implements it.
type PowerController interface {
	SetPowerNode(ctx context.Context, state, mask uint8) error
	ResetNode(ctx context.Context, node power.NodeID) error
	SetLED(ctx context.Context, name string, on bool) error
	LEDs() led.Controller
}

// Options configures the API server.
type Options struct {
	AuthUsername      string
	AuthPassword      string
	Power             PowerController
	EventBus          *events.Bus
	PrometheusHandler http.Handler // served at /metrics when set
}

// Server is the huma v2 HTTP API over a PowerController.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	options    *Options
	logger     *slog.Logger

	// hw serialises every hardware call; the controller has no lock of its own.
	hw sync.Mutex

	lifecycle sync.Mutex
	stopped   bool
}

// NewServer creates the server and registers every route.
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()
	cors := defaultCORS()
	cors.preflight(mux)

	config := huma.DefaultConfig("nodepower API", version.String())
	config.Info.Description = "Power sequencing for the compute node slots of a Turing Pi style board"
	config.Servers = []*huma.Server{}
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"basicAuth": {
			Type:   "http",
			Scheme: "basic",
		},
	}

	api := humago.New(mux, config)

	server := &Server{
		api:     api,
		mux:     mux,
		options: opts,
		logger:  logging.GetLogger("api"),
	}

	api.UseMiddleware(cors.middleware)
	api.UseMiddleware(HTTPLoggingMiddleware)
	if opts.AuthUsername != "" && opts.AuthPassword != "" {
		api.UseMiddleware(server.basicAuthMiddleware(opts.AuthUsername, opts.AuthPassword))
	}

	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}

	server.registerRoutes()
	return server
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves on addr until Stop is called. It returns nil after a clean stop.
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting nodepower API server", "addr", addr)
	s.logger.Info("OpenAPI documentation available", "url", "http://"+addr+"/docs")

	s.lifecycle.Lock()
	if s.stopped {
		s.lifecycle.Unlock()
		return nil
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.httpServer
	s.lifecycle.Unlock()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down, waiting for in-flight requests until ctx ends.
// A request in the middle of a power sequence finishes it first.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server")

	s.lifecycle.Lock()
	s.stopped = true
	srv := s.httpServer
	s.lifecycle.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Check API health status",
		Tags:        []string{"health"},
		Security:    []map[string][]string{},
	}, func(_ context.Context, _ *struct{}) (*models.HealthResponse, error) {
		return &models.HealthResponse{
			Body: models.HealthData{
				Status:  "ok",
				Message: "API is healthy",
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Get application version information",
		Tags:        []string{"system"},
		Security:    []map[string][]string{},
	}, func(_ context.Context, _ *struct{}) (*models.VersionResponse, error) {
		return &models.VersionResponse{Body: version.Get()}, nil
	})

	s.registerPowerRoutes()
	s.registerLEDRoutes()
	s.registerSSERoutes()
}

// withAuth returns security requirement for basic auth
func withAuth() []map[string][]string {
	return []map[string][]string{
		{"basicAuth": {}},
	}
}
