package otel

import (
	"context"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "inkpress"

// HTTPMiddleware returns chi middleware that traces incoming requests.
// Spans are named by method and path so article endpoints are
// distinguishable in the trace view.
func HTTPMiddleware(serviceName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, serviceName,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	}
}

// StartArticleSpan starts a span covering one worker's drive of an article.
func StartArticleSpan(ctx context.Context, articleID, tier string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "article",
		trace.WithAttributes(
			attribute.String("article.id", articleID),
			attribute.String("article.tier", tier),
		),
	)
}

// StartPhaseSpan starts a span for one pipeline phase execution.
func StartPhaseSpan(ctx context.Context, articleID, phase, model string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "phase",
		trace.WithAttributes(
			attribute.String("article.id", articleID),
			attribute.String("phase.name", phase),
			attribute.String("phase.model", model),
		),
	)
}
