// Package http implements the HTTP handlers of the report server. Handlers
// stay thin: they parse the request, delegate to the service layer and format
// the response.
//
// # Endpoints
//
//	GET  /api/health                 readiness with cache status
//	GET  /api/health/live            liveness
//	GET  /api/version                build and runtime information
//	GET  /api/reports/kinds          registered report kinds
//	POST /api/reports/{kind}         multipart upload, JSON batch result
//	POST /api/reports/{kind}/export  multipart upload, xlsx attachment
//	GET  /metrics                    Prometheus exposition
//
// Report endpoints take one or more files in the "file" field and accept the
// query parameters percent, buckets, manual_correction, dedupe_ptp,
// exclude_weekday and, for export, scope.
//
// Successful JSON responses use the envelope
//
//	{"status": "success", "data": ...}
//
// and every error is an RFC 7807 problem produced by the errors package.
// A failing file in a batch is reported in its own entry; only a batch where
// every file failed is an error response.
package http
