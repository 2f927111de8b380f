package http

import (
	"context"

	"github.com/aeturrell/deploy-api/internal/services"
)

// DeathsServiceInterface defines the query operations served over HTTP
type DeathsServiceInterface interface {
	Lookup(ctx context.Context, year int, geoCode string) (services.LookupResult, error)
	Years() ([]int, error)
	Summary(ctx context.Context, year int) (services.YearSummary, error)
	Reload(ctx context.Context) error
	Size() int
}
