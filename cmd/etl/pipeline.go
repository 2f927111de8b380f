package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aeturrell/deploy-api/internal/config"
	"github.com/aeturrell/deploy-api/internal/dataprocessing"
	"github.com/aeturrell/deploy-api/internal/exporter"
	"github.com/aeturrell/deploy-api/internal/files"
	"github.com/aeturrell/deploy-api/internal/infrastructure"
	"github.com/aeturrell/deploy-api/internal/operations"
	"github.com/aeturrell/deploy-api/internal/scraper"
	"github.com/aeturrell/deploy-api/internal/validation"
	"github.com/aeturrell/deploy-api/pkg/contracts"
)

// environment is everything a subcommand needs once configuration is loaded
type environment struct {
	cfg     *config.Config
	paths   *config.Paths
	logger  *slog.Logger
	otel    *infrastructure.OTelProviders
	metrics *infrastructure.PipelineMetrics
	closer  io.Closer
}

// newEnvironment loads configuration and starts logging and telemetry.
// A non-empty csvPath overrides pipeline.csv_export.
func newEnvironment(configPath, csvPath string) (*environment, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if csvPath != "" {
		cfg.Pipeline.CSVFile = csvPath
	}

	logger, closer, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	env := &environment{cfg: cfg, logger: logger, closer: closer}

	if env.paths, err = cfg.ResolvePaths(); err != nil {
		env.Close(context.Background())
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := env.paths.EnsureDirectories(); err != nil {
		env.Close(context.Background())
		return nil, err
	}

	if env.otel, err = infrastructure.InitializeOTel(cfg.Telemetry, contracts.Version, logger); err != nil {
		env.Close(context.Background())
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	if env.metrics, err = infrastructure.NewPipelineMetrics(env.otel.Meter); err != nil {
		env.Close(context.Background())
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	return env, nil
}

// Close flushes telemetry and releases the log file
func (e *environment) Close(ctx context.Context) {
	if e.otel != nil {
		if err := e.otel.Shutdown(ctx); err != nil {
			e.logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}
	if e.closer != nil {
		e.closer.Close()
	}
}

func (e *environment) assembler() *dataprocessing.Assembler {
	return dataprocessing.NewAssembler(dataprocessing.AssemblerOptions{
		Transform: e.cfg.Transform,
		Workers:   e.cfg.Pipeline.Workers,
		Metrics:   e.metrics,
	}, e.logger)
}

// newManager registers the extract and transform steps, in that order
func (e *environment) newManager() (*operations.Manager, error) {
	page, err := scraper.NewPageFetcher(e.cfg.Source)
	if err != nil {
		return nil, err
	}
	client := scraper.NewHTTPFetcher(e.cfg.Source.Timeout, e.cfg.Source.UserAgent)
	downloader := scraper.NewDownloader(
		scraper.NewDownloaderConfig(e.cfg, e.paths.DownloadsDir),
		page, client, e.metrics, e.logger)

	registry := operations.NewRegistry()
	if err := registry.Register(operations.NewExtractStep(downloader)); err != nil {
		return nil, err
	}

	transform := operations.NewTransformStep(operations.TransformConfig{
		Finder:    files.NewDiscovery(e.paths.DownloadsDir, e.logger),
		Validator: validation.NewFileValidator(e.logger),
		Assembler: e.assembler(),
		Store:     exporter.NewParquetStore(e.paths.OutputFile, e.logger),
		CSV:       exporter.NewCSVWriter(e.logger),
		CSVPath:   e.paths.CSVFile,
		MinYear:   e.cfg.Pipeline.MinYear,
		Logger:    e.logger,
	})
	if err := registry.Register(transform); err != nil {
		return nil, err
	}

	return operations.NewManager(registry, e.metrics, e.logger), nil
}
