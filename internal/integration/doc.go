// Package integration exercises the pipeline and the API together against
// spreadsheets written to a temporary directory.
package integration
