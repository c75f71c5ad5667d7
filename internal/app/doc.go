// Package app provides application initialization and lifecycle management
// for the report server. It wires configuration, logging, telemetry, the
// result cache, services and HTTP handlers together at startup.
//
// # Initialization Flow
//
//	1. Load configuration from defaults, the YAML file and REMARK_* variables
//	2. Initialize logging and OpenTelemetry
//	3. Create the result cache (memory or redis)
//	4. Initialize services with their dependencies
//	5. Set up HTTP handlers and middleware
//	6. Configure the HTTP server
//
// # Usage
//
//	application, err := app.NewApplication(configFile)
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// # Graceful Shutdown
//
// Run handles SIGINT and SIGTERM: active requests are drained within the
// shutdown timeout, the cache is closed and telemetry is flushed.
//
// # Error Handling
//
// All initialization errors are returned to the caller. The app does not call
// os.Exit, leaving the exit code to main.
package app
