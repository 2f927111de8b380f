// Package operations runs the ETL as a sequence of named steps.
//
// Steps are registered with a Registry in the order they run. The Manager
// executes a selection of them against one RunState, which carries what a
// step produced (download results, the assembled dataset) to the steps after
// it. Each step runs inside its own trace span and is timed into the
// pipeline metrics; the first failing step stops the run.
//
// The two steps of the pipeline are:
//
//   - ExtractStep ("extract"): download missing spreadsheets from the ONS page
//   - TransformStep ("transform"): discover the local files, assemble the tidy
//     table, write it as Parquet and optionally as CSV
//
// Example usage:
//
//	registry := operations.NewRegistry()
//	_ = registry.Register(operations.NewExtractStep(downloader))
//	_ = registry.Register(operations.NewTransformStep(transformCfg))
//
//	manager := operations.NewManager(registry, metrics, logger)
//	state, err := manager.Execute(ctx) // every step, in order
//	state, err = manager.Execute(ctx, operations.StepIDTransform)
package operations
