// Package config loads the application configuration.
//
// Values are resolved in increasing order of precedence:
//
//  1. Default()
//  2. a YAML file (config.yaml or configs/config.yaml, or an explicit path)
//  3. environment variables prefixed with DEATHS_, after loading an optional .env
//
// For example:
//
//	DEATHS_PIPELINE_MIN_YEAR=2015
//	DEATHS_PIPELINE_DOWNLOADS_LOCATION=scratch
//	DEATHS_PIPELINE_NAME_OF_DATA_FILE=deaths_data.parquet
//	DEATHS_SERVER_PORT=8000
//	DEATHS_LOGGING_LEVEL=debug
//
// The resolved Config is validated with struct tags and then passed explicitly
// to every component; nothing reads configuration from package state.
package config
