// Package httpapi exposes the MPIJob client over a chi REST router.
//
// Files:
//   - server.go: router, middleware stack, health and metrics endpoints
//   - jobs.go: job handlers (create, list, get, status, delete, events, logs)
//   - errors.go: error to status mapping and JSON error payloads
//   - config.go: package-level tunables set by the server binary
//   - context.go: base context joined into long-running handlers
//   - logging.go: optional zerolog logger and per-request log levels
//   - metrics.go: Prometheus request instrumentation
//   - swagger.go / swagger_stub.go: Swagger UI behind the swagger build tag
package httpapi
