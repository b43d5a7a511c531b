// Package middleware provides ready-made pipeline stages: request ids,
// structured logging, Prometheus metrics, OpenTelemetry tracing, rate
// limiting and output redaction.
//
// Every constructor returns a named *pipeline.Factory, so stages can be
// extended and show up by name in pipeline descriptions.
package middleware
