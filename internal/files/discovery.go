package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aeturrell/deploy-api/pkg/contracts/domain"
)

// sourceFilePattern matches the canonical download names, e.g. 2020.xlsx
var sourceFilePattern = regexp.MustCompile(`(?i)^(\d{4})\.(xlsx?)$`)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery finds source spreadsheets in the downloads directory
type Discovery struct {
	dir    string
	logger *slog.Logger
}

// NewDiscovery creates a new file discovery instance rooted at dir
func NewDiscovery(dir string, logger *slog.Logger) *Discovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{
		dir:    dir,
		logger: logger.With(slog.String("component", "discovery")),
	}
}

// FindSpreadsheets lists every .xls and .xlsx file in the directory, by name
func (d *Discovery) FindSpreadsheets() ([]FileInfo, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", d.dir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".xlsx" && ext != ".xls" {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(d.dir, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// FindSourceFiles returns one source file per year at or after minYear, in
// year order. Files not named {year}.xls or {year}.xlsx are ignored. When both
// formats exist for a year the .xlsx file is used.
func (d *Discovery) FindSourceFiles(minYear int) ([]domain.SourceFile, error) {
	spreadsheets, err := d.FindSpreadsheets()
	if err != nil {
		return nil, err
	}

	byYear := make(map[int]domain.SourceFile)
	for _, info := range spreadsheets {
		match := sourceFilePattern.FindStringSubmatch(info.Name)
		if match == nil {
			d.logger.Debug("Ignoring spreadsheet with non-canonical name",
				slog.String("file", info.Name))
			continue
		}

		year, _ := strconv.Atoi(match[1])
		if year < minYear {
			continue
		}

		file := domain.SourceFile{
			Year:   year,
			Format: domain.Format(strings.ToLower(match[2])),
			Path:   info.Path,
		}

		if existing, ok := byYear[year]; ok {
			if existing.Format == domain.FormatModern || file.Format != domain.FormatModern {
				file = existing
			}
			d.logger.Warn("Multiple source files found for year",
				slog.Int("year", year),
				slog.String("using", file.String()))
		}
		byYear[year] = file
	}

	files := make([]domain.SourceFile, 0, len(byYear))
	for _, file := range byYear {
		files = append(files, file)
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].Year < files[j].Year
	})

	d.logger.Info("Source files discovered",
		slog.String("dir", d.dir),
		slog.Int("min_year", minYear),
		slog.Int("count", len(files)))

	return files, nil
}
