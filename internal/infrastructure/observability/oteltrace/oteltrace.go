package oteltrace

import (
	"context"

	"github.com/lanepay/lanepay/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type tracer struct{ t trace.Tracer }

// New wraps the global otel tracer. Exporter setup (sdktrace.TracerProvider +
// otel.SetTracerProvider) is the deployment's responsibility.
func New(name string) observability.TraceCtx {
	if name == "" {
		name = "lanepay"
	}
	return &tracer{t: otel.Tracer(name)}
}

func (t *tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.t.Start(ctx, name, trace.WithAttributes(attrs...))
}
