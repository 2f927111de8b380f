// Package performance holds benchmarks and load tests for the lookup path.
// Run with: go test -bench=. ./internal/performance
package performance
