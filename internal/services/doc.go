// Package services holds the query side of the application: the in-memory
// index over the tidy deaths table served by the HTTP API, and the health
// reporting that tells an orchestrator whether that index is loaded.
//
// DeathsService swaps whole snapshots under a read-write lock, so a reload
// never exposes a half-built index to concurrent lookups. A failed reload
// keeps serving the previous snapshot.
package services
