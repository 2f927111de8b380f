// Package shared holds helpers used by more than one layer of the module.
// Its testutil subpackage captures slog output so tests can assert on what
// the pipeline and the API log.
package shared
