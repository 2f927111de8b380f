package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/aeturrell/deploy-api/internal/config"
	"github.com/aeturrell/deploy-api/internal/infrastructure"
	"github.com/aeturrell/deploy-api/pkg/contracts/domain"
)

// DatasetWriter persists an assembled dataset as a single unit
type DatasetWriter interface {
	WriteDataset(ctx context.Context, dataset *domain.TidyDataset) error
}

// AssemblerOptions configures an Assembler
type AssemblerOptions struct {
	Transform config.TransformConfig
	// Workers bounds how many files are normalized at once
	Workers int
	// Metrics is optional
	Metrics *infrastructure.PipelineMetrics
}

// Assembler turns a set of source files into one tidy dataset
type Assembler struct {
	selector   *SheetSelector
	normalizer *Normalizer
	workers    int
	metrics    *infrastructure.PipelineMetrics
	tracer     trace.Tracer
	logger     *slog.Logger
}

// NewAssembler creates an assembler
func NewAssembler(opts AssemblerOptions, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &Assembler{
		selector:   NewSheetSelector(opts.Transform),
		normalizer: NewNormalizer(opts.Transform),
		workers:    workers,
		metrics:    opts.Metrics,
		tracer:     otel.Tracer(infrastructure.InstrumentationName),
		logger:     logger.With(slog.String("component", "assembler")),
	}
}

// Assemble normalizes every file and merges the results. Files are processed
// in parallel but concatenated in year order, so the output does not depend on
// scheduling. When two files report the same geography and month, the file
// with the later reporting year wins. The first failing file aborts the whole
// assembly.
func (a *Assembler) Assemble(ctx context.Context, files []domain.SourceFile) (*domain.TidyDataset, error) {
	if len(files) == 0 {
		return nil, ErrNoSourceFiles
	}

	ctx, span := a.tracer.Start(ctx, "dataprocessing.assemble",
		trace.WithAttributes(attribute.Int("files.count", len(files))))
	defer span.End()

	ordered := make([]domain.SourceFile, len(files))
	copy(ordered, files)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Year != ordered[j].Year {
			return ordered[i].Year < ordered[j].Year
		}
		return ordered[i].Path < ordered[j].Path
	})

	results := make([][]domain.Observation, len(ordered))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, file := range ordered {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			observations, err := a.processFile(gctx, file)
			if err != nil {
				return &FileError{Year: file.Year, Path: file.Path, Err: err}
			}
			results[i] = observations
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	dataset, err := merge(results)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}
	if dataset.Len() == 0 {
		return nil, ErrEmptyDataset
	}

	span.SetAttributes(attribute.Int("observations.count", dataset.Len()))
	a.logger.InfoContext(ctx, "Dataset assembled",
		slog.Int("files", len(ordered)),
		slog.Int("observations", dataset.Len()),
		slog.Any("years", dataset.Years()))

	return dataset, nil
}

// Run assembles the dataset and hands it to the writer. Nothing is written
// unless every file was processed.
func (a *Assembler) Run(ctx context.Context, files []domain.SourceFile, writer DatasetWriter) (*domain.TidyDataset, error) {
	dataset, err := a.Assemble(ctx, files)
	if err != nil {
		return nil, err
	}
	if err := writer.WriteDataset(ctx, dataset); err != nil {
		return nil, fmt.Errorf("failed to persist dataset: %w", err)
	}
	return dataset, nil
}

// SelectSheet opens path and returns its sheet names together with the sheet
// the selector would read
func (a *Assembler) SelectSheet(path string) ([]string, string, error) {
	names, err := ListSheets(path)
	if err != nil {
		return nil, "", err
	}
	selected, err := a.selector.Select(names)
	if err != nil {
		return names, "", err
	}
	return names, selected, nil
}

func (a *Assembler) processFile(ctx context.Context, file domain.SourceFile) ([]domain.Observation, error) {
	ctx, span := a.tracer.Start(ctx, "dataprocessing.file",
		trace.WithAttributes(
			attribute.Int("file.year", file.Year),
			attribute.String("file.format", string(file.Format)),
		))
	defer span.End()

	format := file.Format
	if format == "" {
		var err error
		if format, err = FormatFromPath(file.Path); err != nil {
			return nil, err
		}
	}

	wb, err := OpenWorkbook(file.Path, format)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	sheet, err := a.selector.Select(wb.SheetNames())
	if err != nil {
		return nil, err
	}

	raw, err := wb.Rows(sheet)
	if err != nil {
		return nil, err
	}

	observations, err := a.normalizer.Normalize(raw, file.Year)
	if err != nil {
		return nil, err
	}

	if len(observations) == 0 {
		a.logger.WarnContext(ctx, "Source file produced no observations",
			slog.Int("year", file.Year),
			slog.String("file", file.String()),
			slog.String("sheet", sheet))
	}

	a.metrics.RecordFile(ctx, string(format), len(observations))
	a.logger.DebugContext(ctx, "Source file normalized",
		slog.Int("year", file.Year),
		slog.String("file", file.String()),
		slog.String("sheet", sheet),
		slog.Int("observations", len(observations)))

	return observations, nil
}

// merge concatenates per-file results in order, keeps the last observation for
// each key, derives datetimes and sorts by year, month and geography
func merge(results [][]domain.Observation) (*domain.TidyDataset, error) {
	index := make(map[domain.ObservationKey]int)
	var out []domain.Observation
	for _, observations := range results {
		for _, o := range observations {
			if pos, ok := index[o.Key()]; ok {
				out[pos] = o
				continue
			}
			index[o.Key()] = len(out)
			out = append(out, o)
		}
	}

	months := make([]int, len(out))
	for i := range out {
		dt, err := DeriveDatetime(out[i].Year, out[i].Month)
		if err != nil {
			return nil, err
		}
		out[i].Datetime = dt
		months[i] = int(dt.Month())
	}

	sort.Sort(byYearMonthGeo{out, months})
	return &domain.TidyDataset{Observations: out}, nil
}

type byYearMonthGeo struct {
	obs    []domain.Observation
	months []int
}

func (s byYearMonthGeo) Len() int { return len(s.obs) }

func (s byYearMonthGeo) Swap(i, j int) {
	s.obs[i], s.obs[j] = s.obs[j], s.obs[i]
	s.months[i], s.months[j] = s.months[j], s.months[i]
}

func (s byYearMonthGeo) Less(i, j int) bool {
	a, b := s.obs[i], s.obs[j]
	if a.Year != b.Year {
		return a.Year < b.Year
	}
	if s.months[i] != s.months[j] {
		return s.months[i] < s.months[j]
	}
	return a.GeoCode < b.GeoCode
}
