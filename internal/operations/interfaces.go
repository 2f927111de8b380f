package operations

import (
	"context"

	"github.com/aeturrell/deploy-api/internal/dataprocessing"
	"github.com/aeturrell/deploy-api/internal/scraper"
	"github.com/aeturrell/deploy-api/pkg/contracts/domain"
)

// SourceDownloader fetches missing source spreadsheets
type SourceDownloader interface {
	Download(ctx context.Context) (*scraper.DownloadResult, error)
}

// SourceFinder lists the local source spreadsheets
type SourceFinder interface {
	FindSourceFiles(minYear int) ([]domain.SourceFile, error)
}

// DatasetAssembler builds and persists the tidy table
type DatasetAssembler interface {
	Run(ctx context.Context, files []domain.SourceFile, writer dataprocessing.DatasetWriter) (*domain.TidyDataset, error)
}

// ObservationExporter writes a secondary copy of the tidy table
type ObservationExporter interface {
	WriteObservations(ctx context.Context, path string, dataset *domain.TidyDataset) error
}

// SourceValidator checks discovered files before they are assembled
type SourceValidator interface {
	ValidateSourceFiles(files []domain.SourceFile) error
}
