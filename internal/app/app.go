package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"nhsdash/internal/config"
	apierrors "nhsdash/internal/errors"
	"nhsdash/internal/infrastructure"
	customMiddleware "nhsdash/internal/middleware"
	"nhsdash/internal/services"
	handlers "nhsdash/internal/transport/http"
	ws "nhsdash/internal/websocket"
)

// BuildTime is set at link time with -ldflags "-X nhsdash/internal/app.BuildTime=...".
var BuildTime = time.Now().UTC().Format(time.RFC3339)

const shutdownNotice = "Server is shutting down"

// Application holds the loaded dataset service, the websocket hub and the
// HTTP server built around them.
type Application struct {
	Config           *config.Config
	Router           *chi.Mux
	Server           *http.Server
	Logger           *slog.Logger
	Telemetry        *infrastructure.Telemetry
	Metrics          *infrastructure.BusinessMetrics
	DashboardService *services.DashboardService
	HealthService    *services.HealthService
	WebSocketHub     *ws.Hub
	ErrorHandler     *apierrors.ErrorHandler
	FrontendFS       fs.FS // Embedded static assets, rooted above static/

	serveErr chan error
}

// NewApplication loads the configuration and logger and wires the
// application around them.
func NewApplication(frontendFS fs.FS) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger, frontendFS)
}

// New creates an application from an explicit configuration and logger.
// The dataset is loaded here; a missing or malformed file is an error.
func New(cfg *config.Config, logger *slog.Logger, frontendFS fs.FS) (*Application, error) {
	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("build_time", BuildTime))

	if paths, err := config.GetPaths(); err == nil {
		paths.LogPathResolution(logger, cfg)
	}

	telemetry, err := infrastructure.NewTelemetry(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(telemetry.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	app := &Application{
		Config:       cfg,
		Logger:       logger,
		Telemetry:    telemetry,
		Metrics:      metrics,
		ErrorHandler: apierrors.NewErrorHandler(logger, cfg.Logging.Development),
		FrontendFS:   frontendFS,
		serveErr:     make(chan error, 1),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices loads the dataset and builds the services on top of it
func (a *Application) initializeServices() error {
	dashboardService, err := services.LoadDashboardService(context.Background(), a.Config, a.Metrics, a.Logger)
	if err != nil {
		return err
	}
	a.DashboardService = dashboardService

	a.WebSocketHub = ws.NewHub(dashboardService, a.Metrics, a.Logger)
	a.HealthService = services.NewHealthService(config.AppVersion, BuildTime, dashboardService, a.WebSocketHub, a.Logger)

	return nil
}

// setupRouter mounts the websocket endpoint, the page, the API and the
// metrics scrape.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Only middleware that leaves the ResponseWriter alone runs ahead of
	// the websocket upgrade.
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	otelMW := customMiddleware.NewOTelMiddleware(a.Telemetry, a.Metrics)
	wsHandler := ws.NewHandler(a.WebSocketHub, a.Config.WebSocket, a.Config.Security.AllowedOrigins, a.Logger)
	r.With(otelMW.WebSocket).Handle(config.WebSocketEndpoint, wsHandler)

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer → headers → limits
		r.Use(otelMW.Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.DefaultSecureHeaders(a.Config.Dashboard.AssetsHost).Handler)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
				AllowedOrigins: a.Config.Security.AllowedOrigins,
				Logger:         a.Logger,
			}))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		r.Use(customMiddleware.Compress(5))

		r.Method(http.MethodGet, "/", handlers.NewPageHandler(a.DashboardService, a.Logger, a.ErrorHandler))
		a.setupStaticRoutes(r)
		a.setupAPIRoutes(r)
	})

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	// Scrapes stay outside the request metrics they report on.
	r.Handle(config.MetricsEndpoint, a.Telemetry.Scrape)

	a.Router = r
}

// setupAPIRoutes mounts /api under the request timeout.
func (a *Application) setupAPIRoutes(r chi.Router) {
	dashboardHandler := handlers.NewDashboardHandler(a.DashboardService, a.Logger, a.ErrorHandler)
	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		r.Mount("/dashboard", dashboardHandler.Routes())
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)
	})
}

// setupStaticRoutes serves the embedded script and stylesheet
func (a *Application) setupStaticRoutes(r chi.Router) {
	if a.FrontendFS == nil {
		a.Logger.Warn("no frontend filesystem, static assets disabled")
		return
	}

	r.Group(func(r chi.Router) {
		r.Use(chimw.SetHeader("Cache-Control", "public, max-age=3600"))
		r.Handle("/static/*", http.FileServer(http.FS(a.FrontendFS)))
	})
}

// createServer builds the http.Server; nothing listens until Start.
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Addr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(a.Logger.Handler(), slog.LevelError),
	}
}

// Start starts the hub and the HTTP server. A server failure is reported
// through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("address", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level))

	a.WebSocketHub.Start()

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			a.serveErr <- err
			cancel()
		}
	}()

	if err := a.DashboardService.Ready(); err != nil {
		a.Logger.WarnContext(ctx, "Startup readiness check failed", slog.String("error", err.Error()))
	}

	stats := a.DashboardService.Stats()
	a.Logger.InfoContext(ctx, "Dashboard ready",
		slog.String("url", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)),
		slog.Int("rows", stats.Rows),
		slog.Int("providers", stats.Providers))

	return nil
}

// Stop broadcasts the shutdown notice before draining the server. The hub
// and telemetry are stopped once no request is in flight.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Stopping dashboard")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	a.WebSocketHub.BroadcastStatus("shutting_down", shutdownNotice)

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	// Websocket connections are hijacked and outlive Server.Shutdown.
	a.WebSocketHub.Stop()

	if a.Telemetry != nil {
		if err := a.Telemetry.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Dashboard stopped")

	if err := infrastructure.CloseLogFile(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close log file: %w", err))
	}
	return errors.Join(errs...)
}

// Run serves until SIGINT, SIGTERM or a listener failure.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	var serveErr error
	select {
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		serveErr = <-a.serveErr
	}

	// The run context may already be cancelled; shutdown gets its own.
	if err := a.Stop(context.Background()); err != nil {
		return errors.Join(serveErr, err)
	}
	return serveErr
}
