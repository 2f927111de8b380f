package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix of every environment override, e.g. DEATHS_PIPELINE_MIN_YEAR
const EnvPrefix = "DEATHS"

// Config represents the complete application configuration
type Config struct {
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Source    SourceConfig    `yaml:"source" envconfig:"SOURCE"`
	Transform TransformConfig `yaml:"transform" envconfig:"TRANSFORM"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// PipelineConfig controls which files are processed and where the tidy table is written
type PipelineConfig struct {
	MinYear      int    `yaml:"min_year" envconfig:"MIN_YEAR" validate:"min=1900,max=2999"`
	DownloadsDir string `yaml:"downloads_location" envconfig:"DOWNLOADS_LOCATION" validate:"required"`
	OutputFile   string `yaml:"name_of_data_file" envconfig:"NAME_OF_DATA_FILE" validate:"required"`
	CSVFile      string `yaml:"csv_export" envconfig:"CSV_EXPORT"`
	Workers      int    `yaml:"workers" envconfig:"WORKERS" validate:"min=1,max=64"`
}

// SourceConfig describes the publisher page the extract step scrapes
type SourceConfig struct {
	PageURL         string        `yaml:"page_url" envconfig:"PAGE_URL" validate:"required,url"`
	BaseURL         string        `yaml:"base_url" envconfig:"BASE_URL" validate:"required,url"`
	FileStem        string        `yaml:"file_stem" envconfig:"FILE_STEM" validate:"required"`
	RequestInterval time.Duration `yaml:"request_interval" envconfig:"REQUEST_INTERVAL" validate:"min=0"`
	Timeout         time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
	UserAgent       string        `yaml:"user_agent" envconfig:"USER_AGENT"`
	Fetcher         string        `yaml:"fetcher" envconfig:"FETCHER" validate:"oneof=http browser"`
}

// TransformConfig tunes sheet selection and row normalization
type TransformConfig struct {
	PreferredSheet   string  `yaml:"preferred_sheet" envconfig:"PREFERRED_SHEET" validate:"required"`
	TargetSheet      string  `yaml:"target_sheet" envconfig:"TARGET_SHEET" validate:"required"`
	SimilarityCutoff float64 `yaml:"similarity_cutoff" envconfig:"SIMILARITY_CUTOFF" validate:"gt=0,lte=1"`
	MinNonEmpty      int     `yaml:"min_non_empty" envconfig:"MIN_NON_EMPTY" validate:"min=1"`
	GeoCodeLength    int     `yaml:"geo_code_length" envconfig:"GEO_CODE_LENGTH" validate:"min=1"`
	MaxMonths        int     `yaml:"max_months" envconfig:"MAX_MONTHS" validate:"min=1,max=120"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" validate:"gt=0"`
	ReloadInterval  time.Duration `yaml:"reload_interval" envconfig:"RELOAD_INTERVAL" validate:"min=0"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" validate:"min=1"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	// AdminKey guards POST /admin/reload through the X-API-Key header; empty leaves it open
	AdminKey string `yaml:"admin_key" envconfig:"ADMIN_KEY"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// TelemetryConfig selects OpenTelemetry exporters
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence. A .env file in the working
// directory is loaded into the environment first when present. An empty
// filePath searches the usual locations.
func Load(filePath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := Default()

	if filePath == "" {
		filePath = getConfigFilePath()
	}
	if filePath != "" {
		if err := loadFromFile(filePath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Fields without a matching variable keep their file or default value
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filePath, err)
	}
	return nil
}

// Validate checks struct constraints and normalizes a few free-form values
func (c *Config) Validate() error {
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Output = strings.ToLower(c.Logging.Output)

	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid fields: %s", strings.Join(fields, ", "))
		}
		return err
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return fmt.Errorf("logging.file_path is required when output is %q", c.Logging.Output)
	}

	return nil
}

// OutputPath returns the location of the tidy table
func (c *Config) OutputPath() string {
	if filepath.IsAbs(c.Pipeline.OutputFile) {
		return c.Pipeline.OutputFile
	}
	return filepath.Join(c.Pipeline.DownloadsDir, c.Pipeline.OutputFile)
}

// getConfigFilePath returns the first config file found, or "" to use defaults and env only
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			MinYear:      DefaultMinYear,
			DownloadsDir: "scratch",
			OutputFile:   "deaths_data.parquet",
			Workers:      4,
		},
		Source: SourceConfig{
			PageURL:         ONSDataPageURL,
			BaseURL:         ONSBaseURL,
			FileStem:        ONSFileStem,
			RequestInterval: time.Second,
			Timeout:         60 * time.Second,
			UserAgent:       DefaultUserAgent,
			Fetcher:         "http",
		},
		Transform: TransformConfig{
			PreferredSheet:   "1",
			TargetSheet:      "Figures",
			SimilarityCutoff: 0.6,
			MinNonEmpty:      3,
			GeoCodeLength:    9,
			MaxMonths:        24,
		},
		Server: ServerConfig{
			Port:            8000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  10 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"*"},
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Telemetry: TelemetryConfig{
			ServiceName:    ServiceName,
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}
