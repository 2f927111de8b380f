package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/montanaflynn/stats"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/aeturrell/deploy-api/internal/infrastructure"
	"github.com/aeturrell/deploy-api/pkg/contracts/domain"
)

// DatasetLoader reads the tidy table from wherever the pipeline persisted it
type DatasetLoader interface {
	Load(ctx context.Context) (*domain.TidyDataset, error)
}

// LookupResult is the answer to a year and geo code query. Data is never nil.
type LookupResult struct {
	Year    int                 `json:"year"`
	GeoCode string              `json:"geo_code"`
	Data    map[string]*float32 `json:"data"`
}

// YearSummary describes the death counts recorded for one year across all geographies
type YearSummary struct {
	Year         int     `json:"year"`
	Observations int     `json:"observations"`
	Missing      int     `json:"missing"`
	Geographies  int     `json:"geographies"`
	Sum          float64 `json:"sum"`
	Mean         float64 `json:"mean"`
	Median       float64 `json:"median"`
	P90          float64 `json:"p90"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
}

type seriesKey struct {
	year    int
	geoCode string
}

// snapshot is an immutable index over one loaded dataset
type snapshot struct {
	series   map[seriesKey]map[string]*float32
	byYear   map[int][]*float32
	geos     map[int]int
	years    []int
	size     int
	loadedAt time.Time
}

func newSnapshot(dataset *domain.TidyDataset) *snapshot {
	s := &snapshot{
		series:   make(map[seriesKey]map[string]*float32),
		byYear:   make(map[int][]*float32),
		geos:     make(map[int]int),
		years:    dataset.Years(),
		size:     dataset.Len(),
		loadedAt: time.Now(),
	}

	for _, o := range dataset.Observations {
		key := seriesKey{year: o.Year, geoCode: o.GeoCode}
		points, ok := s.series[key]
		if !ok {
			points = make(map[string]*float32)
			s.series[key] = points
			s.geos[o.Year]++
		}
		points[o.DateKey()] = o.Deaths
		s.byYear[o.Year] = append(s.byYear[o.Year], o.Deaths)
	}

	return s
}

// DeathsService answers queries over the tidy table held in memory
type DeathsService struct {
	loader  DatasetLoader
	metrics *infrastructure.PipelineMetrics
	tracer  trace.Tracer
	logger  *slog.Logger

	mu   sync.RWMutex
	data *snapshot
}

// NewDeathsService creates a service that is not ready until Load succeeds
func NewDeathsService(loader DatasetLoader, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *DeathsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeathsService{
		loader:  loader,
		metrics: metrics,
		tracer:  otel.Tracer(infrastructure.InstrumentationName),
		logger:  logger,
	}
}

// Load reads the dataset through the loader and swaps it in. A failed load
// keeps the previously served dataset.
func (s *DeathsService) Load(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "deaths.load")
	defer span.End()

	if s.loader == nil {
		return ErrNoLoader
	}

	dataset, err := s.loader.Load(ctx)
	if err != nil {
		s.metrics.RecordReload(ctx, err)
		infrastructure.RecordError(ctx, err)
		s.logger.ErrorContext(ctx, "Dataset load failed", slog.String("error", err.Error()))
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	s.Replace(dataset)
	s.metrics.RecordReload(ctx, nil)
	span.SetAttributes(attribute.Int("dataset.observations", dataset.Len()))

	s.logger.InfoContext(ctx, "Dataset loaded",
		slog.Int("observations", dataset.Len()),
		slog.Any("years", dataset.Years()))
	return nil
}

// Reload is Load under the name used by the admin endpoint and the scheduler
func (s *DeathsService) Reload(ctx context.Context) error {
	return s.Load(ctx)
}

// Replace serves dataset from now on
func (s *DeathsService) Replace(dataset *domain.TidyDataset) {
	if dataset == nil {
		dataset = &domain.TidyDataset{}
	}
	snap := newSnapshot(dataset)

	s.mu.Lock()
	s.data = snap
	s.mu.Unlock()
}

func (s *DeathsService) current() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

// Ready reports whether a dataset has been loaded
func (s *DeathsService) Ready() bool {
	return s.current() != nil
}

// LoadedAt returns when the served dataset was loaded, zero before the first load
func (s *DeathsService) LoadedAt() time.Time {
	if snap := s.current(); snap != nil {
		return snap.loadedAt
	}
	return time.Time{}
}

// Size returns the number of observations served
func (s *DeathsService) Size() int {
	if snap := s.current(); snap != nil {
		return snap.size
	}
	return 0
}

// Lookup returns every monthly count for geoCode in year keyed by YYYY-MM-DD.
// An unknown year or geo code yields an empty mapping rather than an error.
func (s *DeathsService) Lookup(ctx context.Context, year int, geoCode string) (LookupResult, error) {
	result := LookupResult{
		Year:    year,
		GeoCode: geoCode,
		Data:    make(map[string]*float32),
	}

	snap := s.current()
	if snap == nil {
		return result, ErrDatasetNotLoaded
	}

	points := snap.series[seriesKey{year: year, geoCode: geoCode}]
	for date, deaths := range points {
		result.Data[date] = deaths
	}

	s.metrics.RecordLookup(ctx, len(points) > 0)
	s.logger.DebugContext(ctx, "Lookup served",
		slog.Int("year", year),
		slog.String("geo_code", geoCode),
		slog.Int("points", len(result.Data)))

	return result, nil
}

// Years returns the years present, ascending
func (s *DeathsService) Years() ([]int, error) {
	snap := s.current()
	if snap == nil {
		return nil, ErrDatasetNotLoaded
	}
	years := make([]int, len(snap.years))
	copy(years, snap.years)
	return years, nil
}

// MaxYear returns the latest year present
func (s *DeathsService) MaxYear() (int, error) {
	years, err := s.Years()
	if err != nil {
		return 0, err
	}
	if len(years) == 0 {
		return 0, ErrYearNotFound
	}
	return years[len(years)-1], nil
}

// Summary computes descriptive statistics of the recorded counts for year.
// Missing counts are tallied but excluded from the statistics.
func (s *DeathsService) Summary(ctx context.Context, year int) (YearSummary, error) {
	snap := s.current()
	if snap == nil {
		return YearSummary{}, ErrDatasetNotLoaded
	}

	values, ok := snap.byYear[year]
	if !ok {
		return YearSummary{}, fmt.Errorf("%w: %d", ErrYearNotFound, year)
	}

	summary := YearSummary{
		Year:         year,
		Observations: len(values),
		Geographies:  snap.geos[year],
	}

	data := make(stats.Float64Data, 0, len(values))
	for _, v := range values {
		if v == nil {
			summary.Missing++
			continue
		}
		data = append(data, float64(*v))
	}
	if len(data) == 0 {
		return summary, nil
	}

	var err error
	if summary.Sum, err = stats.Sum(data); err != nil {
		return YearSummary{}, fmt.Errorf("failed to compute sum: %w", err)
	}
	if summary.Mean, err = stats.Mean(data); err != nil {
		return YearSummary{}, fmt.Errorf("failed to compute mean: %w", err)
	}
	if summary.Median, err = stats.Median(data); err != nil {
		return YearSummary{}, fmt.Errorf("failed to compute median: %w", err)
	}
	if summary.P90, err = stats.Percentile(data, 90); err != nil {
		return YearSummary{}, fmt.Errorf("failed to compute percentile: %w", err)
	}
	if summary.Min, err = stats.Min(data); err != nil {
		return YearSummary{}, fmt.Errorf("failed to compute min: %w", err)
	}
	if summary.Max, err = stats.Max(data); err != nil {
		return YearSummary{}, fmt.Errorf("failed to compute max: %w", err)
	}

	s.logger.DebugContext(ctx, "Summary computed",
		slog.Int("year", year),
		slog.Int("observations", summary.Observations))
	return summary, nil
}
