/*
Package observability provides tools for monitoring the dispatch engine.

It includes Prometheus metrics and structured logging exposed as lifecycle
hooks, a helper to combine several hook sets, and the OpenTelemetry tracer
provider setup used for throw spans.
*/
package observability
