package tracing

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const storeTracerName = "docstore"

// StartStoreSpan opens a client span for one document store call
func StartStoreSpan(ctx context.Context, system, operation, collection string) (context.Context, trace.Span) {
	name := operation
	if collection != "" {
		name = operation + " " + collection
	}
	return otel.Tracer(storeTracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", system),
			attribute.String("db.operation", operation),
			attribute.String("db.collection.name", collection),
		),
	)
}

// EndStoreSpan records err on the span and ends it. Errors matching any of
// expected are recorded as events only.
func EndStoreSpan(span trace.Span, err error, expected ...error) {
	defer span.End()
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	for _, e := range expected {
		if errors.Is(err, e) {
			span.AddEvent(err.Error())
			return
		}
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// TraceIDFromContext returns the trace ID as a string, or "" outside a span
func TraceIDFromContext(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}
