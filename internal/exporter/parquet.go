package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/aeturrell/deploy-api/internal/files"
	"github.com/aeturrell/deploy-api/pkg/contracts/domain"
)

// Columns is the column order of the tidy table
var Columns = []string{"geo_code", "place_name", "month", "deaths", "year", "datetime"}

// observationRow is the on-disk layout of one tidy observation. Deaths is an
// optional float column so missing counts survive as nulls; datetime is stored
// as YYYY-MM-DD text.
type observationRow struct {
	GeoCode   string   `parquet:"geo_code"`
	PlaceName string   `parquet:"place_name"`
	Month     string   `parquet:"month"`
	Deaths    *float32 `parquet:"deaths,optional"`
	Year      int64    `parquet:"year"`
	Datetime  string   `parquet:"datetime"`
}

func toRow(o domain.Observation) observationRow {
	return observationRow{
		GeoCode:   o.GeoCode,
		PlaceName: o.PlaceName,
		Month:     o.Month,
		Deaths:    o.Deaths,
		Year:      int64(o.Year),
		Datetime:  o.DateKey(),
	}
}

func fromRow(r observationRow) (domain.Observation, error) {
	dt, err := time.Parse(domain.DateLayout, r.Datetime)
	if err != nil {
		return domain.Observation{}, fmt.Errorf("invalid datetime %q for %s: %w", r.Datetime, r.GeoCode, err)
	}
	return domain.Observation{
		GeoCode:   r.GeoCode,
		PlaceName: r.PlaceName,
		Month:     r.Month,
		Deaths:    r.Deaths,
		Year:      int(r.Year),
		Datetime:  dt,
	}, nil
}

// WriteParquet encodes the dataset as one Parquet file. The same dataset
// always produces the same bytes.
func WriteParquet(w io.Writer, dataset *domain.TidyDataset) error {
	rows := make([]observationRow, dataset.Len())
	for i, o := range dataset.Observations {
		rows[i] = toRow(o)
	}

	writer := parquet.NewGenericWriter[observationRow](w, parquet.Compression(&parquet.Snappy))
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ReadParquet decodes a tidy table written by WriteParquet
func ReadParquet(r io.ReaderAt, size int64) (*domain.TidyDataset, error) {
	rows, err := parquet.Read[observationRow](r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet rows: %w", err)
	}

	observations := make([]domain.Observation, len(rows))
	for i, row := range rows {
		if observations[i], err = fromRow(row); err != nil {
			return nil, err
		}
	}
	return &domain.TidyDataset{Observations: observations}, nil
}

// ParquetStore is the canonical location of the tidy table
type ParquetStore struct {
	path   string
	files  *files.Manager
	logger *slog.Logger
}

// NewParquetStore creates a store for the table at path
func NewParquetStore(path string, logger *slog.Logger) *ParquetStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParquetStore{
		path:   path,
		files:  files.NewManager(logger),
		logger: logger.With(slog.String("component", "parquet_store")),
	}
}

// Path returns the location of the table
func (s *ParquetStore) Path() string {
	return s.path
}

// WriteDataset replaces the table atomically
func (s *ParquetStore) WriteDataset(ctx context.Context, dataset *domain.TidyDataset) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.files.WriteAtomic(s.path, func(w io.Writer) error {
		return WriteParquet(w, dataset)
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}

	s.logger.InfoContext(ctx, "Tidy table written",
		slog.String("path", s.path),
		slog.Int("observations", dataset.Len()))
	return nil
}

// Load reads the whole table
func (s *ParquetStore) Load(ctx context.Context) (*domain.TidyDataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", s.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", s.path, err)
	}

	dataset, err := ReadParquet(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", s.path, err)
	}

	s.logger.DebugContext(ctx, "Tidy table loaded",
		slog.String("path", s.path),
		slog.Int("observations", dataset.Len()))
	return dataset, nil
}
