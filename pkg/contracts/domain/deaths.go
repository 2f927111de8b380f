package domain

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DateLayout is the layout of the datetime column and of the keys served by the API.
const DateLayout = "2006-01-02"

// Format identifies the container format of a source spreadsheet
type Format string

const (
	FormatLegacy Format = "xls"  // BIFF binary workbook
	FormatModern Format = "xlsx" // zipped OOXML workbook
)

// Extension returns the file extension including the leading dot
func (f Format) Extension() string {
	return "." + string(f)
}

// SourceFile is one downloaded spreadsheet, identified by its reporting year
type SourceFile struct {
	Year   int    `json:"year" validate:"required,min=1900"`
	Format Format `json:"format" validate:"required,oneof=xls xlsx"`
	Path   string `json:"path" validate:"required"`
}

// Name returns the canonical file name, e.g. 2020.xlsx
func (s SourceFile) Name() string {
	return fmt.Sprintf("%d%s", s.Year, s.Format.Extension())
}

func (s SourceFile) String() string {
	return filepath.Base(s.Path)
}

// Observation is one tidy row: deaths for one geography in one month
type Observation struct {
	GeoCode   string `json:"geo_code"`
	PlaceName string `json:"place_name"`
	Month     string `json:"month"`
	// Year is the calendar year of Month, not the reporting year of the
	// source file. A file reporting more than twelve months backfills the
	// previous year, and those rows carry that earlier year so the table
	// keeps one row per geography, year and month.
	Year     int       `json:"year"`
	Deaths   *float32  `json:"deaths"`
	Datetime time.Time `json:"datetime"`
}

// Missing reports whether the death count was absent in the source
func (o Observation) Missing() bool {
	return o.Deaths == nil
}

// DateKey returns the datetime formatted as YYYY-MM-DD
func (o Observation) DateKey() string {
	return o.Datetime.Format(DateLayout)
}

// Key identifies the observation within a dataset
func (o Observation) Key() ObservationKey {
	return ObservationKey{GeoCode: o.GeoCode, Year: o.Year, Month: o.Month}
}

// ObservationKey is the uniqueness key of the tidy table
type ObservationKey struct {
	GeoCode string
	Year    int
	Month   string
}

// TidyDataset is the ordered concatenation of every observation across all source files
type TidyDataset struct {
	Observations []Observation `json:"observations"`
}

// Len returns the number of observations
func (d *TidyDataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Observations)
}

// Years returns the distinct years present, ascending
func (d *TidyDataset) Years() []int {
	if d == nil {
		return nil
	}
	var years []int
	seen := make(map[int]bool)
	for _, o := range d.Observations {
		if !seen[o.Year] {
			seen[o.Year] = true
			years = append(years, o.Year)
		}
	}
	sort.Ints(years)
	return years
}

// MonthNumber converts a lowercase month name to its calendar month.
// The second result is false when the name is not a month.
func MonthNumber(name string) (time.Month, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for m := time.January; m <= time.December; m++ {
		if strings.ToLower(m.String()) == name {
			return m, true
		}
	}
	return 0, false
}

// MonthName returns the lowercase full month name used in the tidy table
func MonthName(m time.Month) string {
	return strings.ToLower(m.String())
}
