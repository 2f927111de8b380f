package operations

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aeturrell/deploy-api/internal/dataprocessing"
	"github.com/aeturrell/deploy-api/pkg/contracts/domain"
)

// Step identifiers
const (
	StepIDExtract   = "extract"
	StepIDTransform = "transform"
)

// ExtractStep downloads the source spreadsheets
type ExtractStep struct {
	BaseStep
	downloader SourceDownloader
}

// NewExtractStep creates the extract step
func NewExtractStep(downloader SourceDownloader) *ExtractStep {
	return &ExtractStep{
		BaseStep:   NewBaseStep(StepIDExtract, "Download source spreadsheets"),
		downloader: downloader,
	}
}

func (s *ExtractStep) Execute(ctx context.Context, state *RunState) error {
	result, err := s.downloader.Download(ctx)
	if err != nil {
		return fmt.Errorf("failed to download source files: %w", err)
	}
	state.SetDownloads(result)
	return nil
}

// TransformConfig wires the collaborators of the transform step
type TransformConfig struct {
	Finder    SourceFinder
	Validator SourceValidator // optional
	Assembler DatasetAssembler
	Store     dataprocessing.DatasetWriter
	// CSV and CSVPath are optional; both must be set for a CSV copy
	CSV     ObservationExporter
	CSVPath string
	MinYear int
	Logger  *slog.Logger
}

// TransformStep turns the local spreadsheets into the tidy table
type TransformStep struct {
	BaseStep
	cfg    TransformConfig
	logger *slog.Logger
}

// NewTransformStep creates the transform step
func NewTransformStep(cfg TransformConfig) *TransformStep {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &TransformStep{
		BaseStep: NewBaseStep(StepIDTransform, "Assemble tidy deaths table"),
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "transform_step")),
	}
}

func (s *TransformStep) Execute(ctx context.Context, state *RunState) error {
	files, err := s.cfg.Finder.FindSourceFiles(s.cfg.MinYear)
	if err != nil {
		return fmt.Errorf("failed to discover source files: %w", err)
	}

	if s.cfg.Validator != nil {
		if err := s.cfg.Validator.ValidateSourceFiles(files); err != nil {
			return fmt.Errorf("invalid source file: %w", err)
		}
	}

	var writer dataprocessing.DatasetWriter = s.cfg.Store
	if s.cfg.CSV != nil && s.cfg.CSVPath != "" {
		writer = &exportingWriter{
			csv:    s.cfg.CSV,
			path:   s.cfg.CSVPath,
			store:  s.cfg.Store,
			logger: s.logger,
		}
	}

	dataset, err := s.cfg.Assembler.Run(ctx, files, writer)
	if err != nil {
		return err
	}
	state.SetDataset(dataset)
	return nil
}

// exportingWriter writes the CSV copy before the tidy table, so a failed
// export leaves the previous table in place
type exportingWriter struct {
	csv    ObservationExporter
	path   string
	store  dataprocessing.DatasetWriter
	logger *slog.Logger
}

func (w *exportingWriter) WriteDataset(ctx context.Context, dataset *domain.TidyDataset) error {
	if err := w.csv.WriteObservations(ctx, w.path, dataset); err != nil {
		return fmt.Errorf("failed to export csv: %w", err)
	}
	w.logger.InfoContext(ctx, "CSV export written", slog.String("path", w.path))
	return w.store.WriteDataset(ctx, dataset)
}
