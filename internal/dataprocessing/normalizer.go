package dataprocessing

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/aeturrell/deploy-api/internal/config"
	"github.com/aeturrell/deploy-api/pkg/contracts/domain"
)

// Normalizer turns the grid of one data sheet into tidy observations
type Normalizer struct {
	// MinNonEmpty is the number of non-empty cells a row needs to be kept
	MinNonEmpty int
	// GeoCodeLength is the exact length of a valid geography code
	GeoCodeLength int
	// MaxMonths bounds the number of month columns a sheet may carry
	MaxMonths int
}

// NewNormalizer builds a normalizer from the transform configuration
func NewNormalizer(cfg config.TransformConfig) *Normalizer {
	return &Normalizer{
		MinNonEmpty:   cfg.MinNonEmpty,
		GeoCodeLength: cfg.GeoCodeLength,
		MaxMonths:     cfg.MaxMonths,
	}
}

// Normalize extracts the data region of raw and melts it into one observation
// per geography and month. The first row that survives the blank-row filter is
// the header and is discarded; columns are named by position. Rows whose first
// cell is not a geography code are dropped. Datetime is left for the assembler.
// A sheet with no surviving row at all fails with ErrNoDataRegion.
func (n *Normalizer) Normalize(raw [][]string, year int) ([]domain.Observation, error) {
	var kept [][]string
	for _, row := range raw {
		if countNonEmpty(row) >= n.MinNonEmpty {
			kept = append(kept, row)
		}
	}
	if len(kept) == 0 {
		return nil, ErrNoDataRegion
	}

	header, body := kept[0], kept[1:]
	width := len(header)

	var rows [][]string
	for _, row := range body {
		if utf8.RuneCountInString(strings.TrimSpace(cell(row, 0))) != n.GeoCodeLength {
			continue
		}
		rows = append(rows, row)
		width = max(width, len(row))
	}

	months := width - 2
	if months < 1 || months > n.MaxMonths {
		return nil, &ColumnCountError{Columns: months, Max: n.MaxMonths}
	}
	labels := MonthLabels(year, months)

	observations := make([]domain.Observation, 0, len(rows)*months)
	for _, row := range rows {
		geoCode := strings.TrimSpace(cell(row, 0))
		placeName := strings.ToLower(strings.TrimSpace(cell(row, 1)))
		for i, label := range labels {
			observations = append(observations, domain.Observation{
				GeoCode:   geoCode,
				PlaceName: placeName,
				Month:     label.Name(),
				Year:      label.Year,
				Deaths:    parseDeaths(cell(row, i+2)),
			})
		}
	}
	return observations, nil
}

// parseDeaths reads a death count; anything that is not a finite number is missing
func parseDeaths(s string) *float32 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 32)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	f := float32(v)
	return &f
}

func countNonEmpty(row []string) int {
	count := 0
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			count++
		}
	}
	return count
}

// cell returns row[i], or "" for short rows
func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
