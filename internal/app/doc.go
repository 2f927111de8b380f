// Package app wires the regional deaths API together and manages its lifecycle.
//
// # Initialization Flow
//
//  1. Load configuration from defaults, YAML and the environment
//  2. Initialize logging and OpenTelemetry
//  3. Open the tidy table store and build the deaths and health services
//  4. Set up the chi router, middleware and handlers
//  5. Create the HTTP server
//
// Start loads the tidy table once, schedules periodic reloads when
// server.reload_interval is set and serves HTTP in the background. A missing
// table does not stop the server; readiness reports not_ready until a reload
// succeeds.
//
// # Usage
//
//	application, err := app.NewApplication(configPath)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
package app
