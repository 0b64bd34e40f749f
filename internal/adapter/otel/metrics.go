package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "rentflow"

// Metrics holds the RentFlow metric instruments.
type Metrics struct {
	Exports        metric.Int64Counter
	ExportFailures metric.Int64Counter
	ExportBytes    metric.Int64Histogram
	Mutations      metric.Int64Counter
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	return newMetrics(otel.Meter(meterName))
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.Exports, err = meter.Int64Counter("rentflow.invoice.exports",
		metric.WithDescription("Number of invoices exported"))
	if err != nil {
		return nil, err
	}

	m.ExportFailures, err = meter.Int64Counter("rentflow.invoice.export_failures",
		metric.WithDescription("Number of failed invoice exports"))
	if err != nil {
		return nil, err
	}

	m.ExportBytes, err = meter.Int64Histogram("rentflow.invoice.export_bytes",
		metric.WithDescription("Size of exported invoice files"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, err
	}

	m.Mutations, err = meter.Int64Counter("rentflow.invoice.mutations",
		metric.WithDescription("Number of invoice edits by reason"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordExport counts one export attempt. A nil receiver records nothing.
func (m *Metrics) RecordExport(ctx context.Context, format string, size int, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("export.format", format))
	if err != nil {
		m.ExportFailures.Add(ctx, 1, attrs)
		return
	}
	m.Exports.Add(ctx, 1, attrs)
	m.ExportBytes.Record(ctx, int64(size), attrs)
}

// RecordMutation counts one edit of the invoice session.
func (m *Metrics) RecordMutation(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.Mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
