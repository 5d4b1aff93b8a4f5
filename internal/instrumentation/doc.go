// Package instrumentation provides OpenTelemetry instrumentation for the
// anydo service.
//
// This package enables production-grade observability through:
//   - OpenTelemetry metrics for Any.do API calls, calendar updates, and MCP tools
//   - Distributed tracing for request flows and API calls
//   - Prometheus metrics export via /metrics endpoint on dedicated port
//   - OTLP export support for modern observability platforms
//
// # Metrics
//
// The package exposes the following metric categories:
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//
// Any.do API Metrics:
//   - anydo_api_operations_total: Counter of API operations by endpoint, operation, status
//   - anydo_api_operation_duration_seconds: Histogram of API operation durations
//   - anydo_auth_total: Counter of authentication attempts by trigger and result
//
// Calendar Metrics:
//   - calendar_update_cycles_total: Counter of update cycles by list and status
//   - calendar_update_cycle_duration_seconds: Histogram of update cycle durations
//   - calendar_tracked_tasks: Gauge of tasks tracked per calendar
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// # Configuration
//
// Instrumentation can be configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: Metrics exporter type (prometheus, otlp, stdout, default: prometheus)
//   - TRACING_EXPORTER: Tracing exporter type (otlp, stdout, none, default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: anydo)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.Config{
//		ServiceName:    "anydo",
//		ServiceVersion: "0.1.0",
//		Enabled:        true,
//	})
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	recorder := provider.Metrics()
//	recorder.RecordAPIOperation(ctx, "/me/tasks", "get", "success", time.Since(start))
//	recorder.RecordUpdateCycle(ctx, "Work", "success", time.Since(start))
package instrumentation
