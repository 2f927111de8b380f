package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-co-op/gocron"

	"github.com/aeturrell/deploy-api/internal/config"
	apierrors "github.com/aeturrell/deploy-api/internal/errors"
	"github.com/aeturrell/deploy-api/internal/exporter"
	"github.com/aeturrell/deploy-api/internal/infrastructure"
	customMiddleware "github.com/aeturrell/deploy-api/internal/middleware"
	"github.com/aeturrell/deploy-api/internal/services"
	handlers "github.com/aeturrell/deploy-api/internal/transport/http"
	"github.com/aeturrell/deploy-api/pkg/contracts"
)

// AppName is the human readable name logged at startup
const AppName = "Regional deaths lookup API"

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.PipelineMetrics
	Deaths        *services.DeathsService
	Health        *services.HealthService
	Router        *chi.Mux
	Server        *http.Server
	Scheduler     *gocron.Scheduler

	logCloser io.Closer
}

// NewApplication loads configuration from configPath and wires every component
func NewApplication(configPath string) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, closer, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	app, err := Build(cfg, logger)
	if err != nil {
		closer.Close()
		return nil, err
	}
	app.logCloser = closer
	return app, nil
}

// Build wires the application from an already loaded configuration
func Build(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version))

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	paths.LogPathResolution(logger)

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, contracts.Version, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.NewPipelineMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
	}

	app.initializeServices()

	if err := app.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}

	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() {
	store := exporter.NewParquetStore(a.Paths.OutputFile, a.Logger)
	a.Deaths = services.NewDeathsService(store, a.Metrics, a.Logger)

	a.Health = services.NewHealthService(services.BuildInfo{
		Version:   contracts.Version,
		RepoURL:   contracts.RepoURL,
		BuildTime: contracts.BuildTime,
		GitCommit: contracts.GitCommit,
	}, a.Deaths, a.Logger)
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() error {
	r := chi.NewRouter()
	errorHandler := apierrors.NewErrorHandler(a.Logger, false)

	// RequestID → RealIP → OTel → Logger → Recoverer → Timeout
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
	if err != nil {
		return fmt.Errorf("failed to create OpenTelemetry middleware: %w", err)
	}
	r.Use(otelMiddleware.Handler)

	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.Logger))
	r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))
	r.Use(customMiddleware.SecurityHeaders)
	r.Use(customMiddleware.CORS(a.getCORSConfig()))

	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	healthHandler := handlers.NewHealthHandler(a.Health, a.Logger)
	r.Get("/health", healthHandler.HealthCheck)
	r.Get("/health/ready", healthHandler.ReadinessCheck)
	r.Get("/health/live", healthHandler.LivenessCheck)
	r.Get("/version", healthHandler.Version)
	r.Handle("/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, errorHandler))

	deathsHandler := handlers.NewDeathsHandler(a.Deaths, a.Logger, errorHandler)
	r.Mount("/", deathsHandler.Routes())

	r.Route("/admin", func(r chi.Router) {
		var keys map[string]string
		if a.Config.Security.AdminKey != "" {
			keys = map[string]string{a.Config.Security.AdminKey: "admin"}
		}
		r.Use(customMiddleware.APIKeyAuth(a.Logger, keys))
		r.Use(customMiddleware.AuditLog(a.Logger))
		r.Post("/reload", deathsHandler.Reload)
	})

	a.Router = r
	return nil
}

// getCORSConfig builds the CORS policy from configuration
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
		Logger:         a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// LoadDataset performs the startup load. A missing table is logged rather than
// fatal so the API can come up before the first pipeline run; readiness stays
// false until a reload succeeds.
func (a *Application) LoadDataset(ctx context.Context) {
	if err := a.Deaths.Load(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Dataset not available at startup",
			slog.String("path", a.Paths.OutputFile),
			slog.String("error", err.Error()))
	}
}

// startScheduler reloads the dataset every ReloadInterval. Zero disables it.
func (a *Application) startScheduler(ctx context.Context) error {
	interval := a.Config.Server.ReloadInterval
	if interval <= 0 {
		return nil
	}

	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.SingletonModeAll()

	_, err := scheduler.Every(interval).WaitForSchedule().Do(func() {
		reloadCtx, cancel := context.WithTimeout(ctx, a.Config.Server.RequestTimeout)
		defer cancel()

		a.Logger.DebugContext(reloadCtx, "Scheduled dataset reload")
		if err := a.Deaths.Reload(reloadCtx); err != nil {
			a.Logger.ErrorContext(reloadCtx, "Scheduled reload failed", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reload: %w", err)
	}

	scheduler.StartAsync()
	a.Scheduler = scheduler

	a.Logger.InfoContext(ctx, "Dataset reload scheduled", slog.Duration("interval", interval))
	return nil
}

// Start loads the dataset, starts the scheduler and serves HTTP in the
// background. cancel is called if the listener fails.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	a.LoadDataset(ctx)

	if err := a.startScheduler(ctx); err != nil {
		return err
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", a.Server.Addr),
		slog.Bool("dataset_ready", a.Deaths.Ready()))

	return nil
}

// Stop shuts the application down gracefully
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")

	if a.logCloser != nil {
		if err := a.logCloser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close log file: %w", err))
		}
	}

	return errors.Join(errs...)
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	<-ctx.Done()
	a.Logger.Info("Received shutdown signal")

	return a.Stop(context.Background())
}
