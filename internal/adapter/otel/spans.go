// Package otel provides OpenTelemetry tracing and metrics for invoice
// operations. Spans and instruments use the global providers, which stay
// no-op until Init installs exporting ones.
package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "rentflow"

// StartExportSpan starts a span for rendering and delivering one invoice.
func StartExportSpan(ctx context.Context, invoiceID string, itemCount int, format string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "invoice.export",
		trace.WithAttributes(
			attribute.String("invoice.id", invoiceID),
			attribute.Int("invoice.items", itemCount),
			attribute.String("export.format", format),
		),
	)
}

// StartIdentityLoadSpan starts a span for reading stored identity records.
func StartIdentityLoadSpan(ctx context.Context, keyPrefix string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "identity.load",
		trace.WithAttributes(attribute.String("storage.key_prefix", keyPrefix)),
	)
}

// EndSpan records err, if any, and ends the span.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
