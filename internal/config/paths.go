package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains every file system location the pipeline and the API touch.
// Relative locations are resolved against the working directory.
type Paths struct {
	DownloadsDir string
	OutputFile   string
	CSVFile      string
	LogsDir      string
}

// ResolvePaths derives absolute paths from the configuration
func (c *Config) ResolvePaths() (*Paths, error) {
	downloads, err := filepath.Abs(c.Pipeline.DownloadsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve downloads location %s: %w", c.Pipeline.DownloadsDir, err)
	}

	output, err := filepath.Abs(c.OutputPath())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output file %s: %w", c.OutputPath(), err)
	}

	paths := &Paths{
		DownloadsDir: downloads,
		OutputFile:   output,
	}

	if c.Pipeline.CSVFile != "" {
		if paths.CSVFile, err = filepath.Abs(c.Pipeline.CSVFile); err != nil {
			return nil, fmt.Errorf("failed to resolve csv export %s: %w", c.Pipeline.CSVFile, err)
		}
	}

	if c.Logging.Output != "console" && c.Logging.FilePath != "" {
		if paths.LogsDir, err = filepath.Abs(filepath.Dir(c.Logging.FilePath)); err != nil {
			return nil, fmt.Errorf("failed to resolve log directory: %w", err)
		}
	}

	return paths, nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DownloadsDir,
		filepath.Dir(p.OutputFile),
	}
	if p.CSVFile != "" {
		directories = append(directories, filepath.Dir(p.CSVFile))
	}
	if p.LogsDir != "" {
		directories = append(directories, p.LogsDir)
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// LogPathResolution logs the resolved locations
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("downloads", p.DownloadsDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("files",
			slog.String("output", p.OutputFile),
			slog.String("csv", p.CSVFile),
		))
}
