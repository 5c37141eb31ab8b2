package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartRepetitionSpan starts the span covering one repetition of a
// benchmark instance, including its warmup and iteration search.
func StartRepetitionSpan(ctx context.Context, tracer trace.Tracer, benchmark string, repetition, threads int) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "repetition "+benchmark,
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	span.SetAttributes(
		attribute.String("crankbench.benchmark", benchmark),
		attribute.Int("crankbench.repetition", repetition),
		attribute.Int("crankbench.threads", threads),
	)
	return ctx, span
}

// StartProbeSpan starts a child span for one probe of the iteration search.
func StartProbeSpan(ctx context.Context, tracer trace.Tracer, phase string, iterations int64) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "probe")
	span.SetAttributes(
		attribute.String("crankbench.phase", phase),
		attribute.Int64("crankbench.iterations", iterations),
	)
	return ctx, span
}

// EndSpan finishes a span, recording error status if applicable.
func EndSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
