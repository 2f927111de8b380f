package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/aeturrell/deploy-api/internal/config"
	"github.com/aeturrell/deploy-api/internal/files"
	"github.com/aeturrell/deploy-api/internal/infrastructure"
)

// DownloaderConfig configures a Downloader
type DownloaderConfig struct {
	PageURL         string
	BaseURL         string
	FileStem        string
	MinYear         int
	DownloadsDir    string
	RequestInterval time.Duration
}

// NewDownloaderConfig combines the source and pipeline sections of cfg
func NewDownloaderConfig(cfg *config.Config, downloadsDir string) DownloaderConfig {
	return DownloaderConfig{
		PageURL:         cfg.Source.PageURL,
		BaseURL:         cfg.Source.BaseURL,
		FileStem:        cfg.Source.FileStem,
		MinYear:         cfg.Pipeline.MinYear,
		DownloadsDir:    downloadsDir,
		RequestInterval: cfg.Source.RequestInterval,
	}
}

// DownloadResult lists what a download run did, by file name
type DownloadResult struct {
	Downloaded []string
	Skipped    []string
}

// Downloader fetches every source spreadsheet that is not yet on disk
type Downloader struct {
	cfg     DownloaderConfig
	page    PageFetcher
	client  *HTTPFetcher
	files   *files.Manager
	limiter *rate.Limiter
	metrics *infrastructure.PipelineMetrics
	logger  *slog.Logger
}

// NewDownloader creates a downloader. page reads the data page and client
// downloads the files; metrics may be nil.
func NewDownloader(cfg DownloaderConfig, page PageFetcher, client *HTTPFetcher, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *Downloader {
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if cfg.RequestInterval > 0 {
		limit = rate.Every(cfg.RequestInterval)
	}

	return &Downloader{
		cfg:     cfg,
		page:    page,
		client:  client,
		files:   files.NewManager(logger),
		limiter: rate.NewLimiter(limit, 1),
		metrics: metrics,
		logger:  logger.With(slog.String("component", "downloader")),
	}
}

// Plan reads the data page and returns the links to download, one per target
// file name, in page order
func (d *Downloader) Plan(ctx context.Context) ([]FileLink, error) {
	page, err := d.page.Fetch(ctx, d.cfg.PageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch data page: %w", err)
	}

	hrefs, err := FindFileLinks(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var links []FileLink
	for _, href := range hrefs {
		link, ok := ParseFileLink(href, d.cfg.FileStem)
		if !ok {
			d.logger.DebugContext(ctx, "Ignoring link outside the dataset",
				slog.String("href", href))
			continue
		}
		if link.Year < d.cfg.MinYear || seen[link.FileName()] {
			continue
		}
		seen[link.FileName()] = true
		links = append(links, link)
	}

	d.logger.InfoContext(ctx, "Download plan ready",
		slog.Int("links_on_page", len(hrefs)),
		slog.Int("files", len(links)),
		slog.Int("min_year", d.cfg.MinYear))

	return links, nil
}

// Download saves every planned file that does not exist yet. It stops at the
// first failed download; files saved before that are kept.
func (d *Downloader) Download(ctx context.Context) (*DownloadResult, error) {
	links, err := d.Plan(ctx)
	if err != nil {
		return nil, err
	}

	if err := d.files.EnsureDirectory(d.cfg.DownloadsDir); err != nil {
		return nil, err
	}

	result := &DownloadResult{}
	for _, link := range links {
		dest := filepath.Join(d.cfg.DownloadsDir, link.FileName())
		if d.files.FileExists(dest) {
			d.logger.InfoContext(ctx, "Skipping download, file already exists",
				slog.String("file", link.FileName()))
			d.metrics.RecordDownload(ctx, "skipped")
			result.Skipped = append(result.Skipped, link.FileName())
			continue
		}

		if err := d.limiter.Wait(ctx); err != nil {
			return result, err
		}
		if err := d.downloadFile(ctx, link, dest); err != nil {
			d.metrics.RecordDownload(ctx, "failed")
			return result, err
		}
		d.metrics.RecordDownload(ctx, "downloaded")
		result.Downloaded = append(result.Downloaded, link.FileName())
	}

	d.logger.InfoContext(ctx, "Downloads complete",
		slog.Int("downloaded", len(result.Downloaded)),
		slog.Int("skipped", len(result.Skipped)))

	return result, nil
}

func (d *Downloader) downloadFile(ctx context.Context, link FileLink, dest string) error {
	url := strings.TrimRight(d.cfg.BaseURL, "/") + link.Href
	start := time.Now()

	body, err := d.client.Open(ctx, url)
	if err != nil {
		return err
	}
	defer body.Close()

	var written int64
	err = d.files.WriteAtomic(dest, func(w io.Writer) error {
		n, err := io.Copy(w, body)
		written = n
		if err != nil {
			return fmt.Errorf("write file %s: %w", dest, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	d.logger.InfoContext(ctx, "File downloaded successfully",
		slog.String("file", link.FileName()),
		slog.Int64("size_bytes", written),
		slog.Duration("duration", time.Since(start)))
	return nil
}
