package dataprocessing

import (
	"errors"
	"time"

	"github.com/aeturrell/deploy-api/pkg/contracts/domain"
)

var (
	errUnknownMonth = errors.New("not a month name")
	errYearRange    = errors.New("year out of range")
)

// MonthLabel names one month column of a source sheet
type MonthLabel struct {
	Year  int
	Month time.Month
}

// Name returns the lowercase month name used in the tidy table
func (l MonthLabel) Name() string {
	return domain.MonthName(l.Month)
}

// MonthLabels returns the n consecutive calendar months ending with December
// of year, oldest first. More than twelve columns reach back into earlier years.
func MonthLabels(year, n int) []MonthLabel {
	if n <= 0 {
		return nil
	}
	start := time.Date(year, time.December, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(n - 1), 0)

	labels := make([]MonthLabel, n)
	for i := range labels {
		t := start.AddDate(0, i, 0)
		labels[i] = MonthLabel{Year: t.Year(), Month: t.Month()}
	}
	return labels
}

// BusinessMonthEnd returns the last weekday on or before the final day of the month
func BusinessMonthEnd(year int, month time.Month) time.Time {
	// Day 0 of the next month is the last day of this one
	end := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	switch end.Weekday() {
	case time.Saturday:
		return end.AddDate(0, 0, -1)
	case time.Sunday:
		return end.AddDate(0, 0, -2)
	default:
		return end
	}
}

// DeriveDatetime parses a year and lowercase month name into the business month end
func DeriveDatetime(year int, monthName string) (time.Time, error) {
	if year < 1 || year > 9999 {
		return time.Time{}, &DateDerivationError{Year: year, Month: monthName, Err: errYearRange}
	}
	month, ok := domain.MonthNumber(monthName)
	if !ok {
		return time.Time{}, &DateDerivationError{Year: year, Month: monthName, Err: errUnknownMonth}
	}
	return BusinessMonthEnd(year, month), nil
}
