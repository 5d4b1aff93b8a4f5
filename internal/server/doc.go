// Package server provides the serve daemon context and HTTP surfaces for
// the anydo application.
//
// # Key Components
//
// ServerContext owns the Any.do client and the calendar adapters, serializes
// update cycles, and tracks shutdown state shared between the poll loop, the
// MCP server, and the HTTP handlers.
//
// HealthChecker exposes /healthz, /readyz, and /healthz/detailed endpoints.
// Readiness degrades when the server is shutting down, the last update cycle
// failed, or no cycle completed within the configured staleness window.
//
// CalendarHandler exposes the calendar state as JSON:
//   - GET /calendars lists every calendar with its current best task
//   - GET /calendars/{name} returns one calendar with all tracked tasks
//   - GET /calendars/{name}/events?start=...&end=... queries a date range
//
// MetricsServer serves Prometheus metrics on a dedicated port, isolating
// operational metrics from the application traffic.
package server
