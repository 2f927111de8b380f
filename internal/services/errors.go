package services

import "errors"

// Query service errors
var (
	// ErrDatasetNotLoaded is returned by queries made before the first successful load
	ErrDatasetNotLoaded = errors.New("dataset not loaded")

	// ErrYearNotFound is returned when a year has no observations
	ErrYearNotFound = errors.New("year not found")

	// ErrNoLoader is returned when a reload is requested without a data source
	ErrNoLoader = errors.New("no dataset loader configured")
)
