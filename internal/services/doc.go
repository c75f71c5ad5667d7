// Package services implements the business logic layer between the report
// engine and its display collaborators (HTTP handlers and the CLI).
//
// # Services
//
//	- ReportService: runs the report pipeline for one file or a batch of files,
//	  builds the Combined report, consults the result cache and exports workbooks.
//	- HealthService: liveness, readiness and version information.
//
// Services take their dependencies through constructors, accept a
// context.Context on every blocking call and log through an injected
// *slog.Logger tagged with a component name.
//
// # Batches
//
// Each file of a batch runs its own load, filter, aggregate and format pipeline
// with bounded parallelism. A failing file is reported in its FileResult and
// never aborts its siblings. When more than one file loads, the records of all
// loaded files are concatenated and the pipeline runs once more for the
// Combined scope.
package services
