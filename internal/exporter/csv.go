package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aeturrell/deploy-api/internal/files"
	"github.com/aeturrell/deploy-api/pkg/contracts/domain"
)

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	files  *files.Manager
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{
		files:  files.NewManager(logger),
		logger: logger.With(slog.String("component", "csv_writer")),
	}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	Append    bool
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file with the given options. A fresh file is
// written atomically; appends go straight to the existing file.
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	w.logger.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(options.Records)),
		slog.Bool("append", options.Append))

	if !options.Append {
		return w.files.WriteAtomic(filePath, func(out io.Writer) error {
			return encodeCSV(out, options)
		})
	}

	if err := w.files.EnsureDirectory(filepath.Dir(filePath)); err != nil {
		return err
	}
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	if err := encodeCSV(file, options); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// WriteObservations exports the tidy table with the same columns as the Parquet file
func (w *CSVWriter) WriteObservations(ctx context.Context, filePath string, dataset *domain.TidyDataset) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	records := make([][]string, 0, dataset.Len())
	for _, o := range dataset.Observations {
		records = append(records, []string{
			o.GeoCode,
			o.PlaceName,
			o.Month,
			formatDeaths(o.Deaths),
			formatInt(o.Year),
			o.DateKey(),
		})
	}

	return w.WriteCSV(filePath, WriteOptions{
		Headers:   Columns,
		Records:   records,
		BOMPrefix: true,
	})
}

func encodeCSV(out io.Writer, options WriteOptions) error {
	// BOM helps Excel recognize UTF-8
	if options.BOMPrefix && !options.Append {
		if _, err := out.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)

	if !options.Append && len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
