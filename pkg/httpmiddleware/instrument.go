package httpmiddleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/app"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Instrument wraps the handler with otelhttp tracing and metrics. Span
// names use the chi route pattern where one matches, keeping cardinality
// bounded for parameterized paths.
func Instrument(serviceName string, routes chi.Routes, m *app.Telemetry) Middleware {
	return func(h http.Handler) http.Handler {
		return otelhttp.NewHandler(h, "",
			otelhttp.WithPropagators(m.TextMapPropagator()),
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
			otelhttp.WithMessageEvents(otelhttp.ReadEvents, otelhttp.WriteEvents),
			otelhttp.WithServerName(serviceName),
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				rctx := chi.NewRouteContext()
				if routes.Match(rctx, r.Method, r.URL.Path) {
					return r.Method + " " + rctx.RoutePattern()
				}
				if operation != "" {
					return operation
				}
				return r.Method + " " + r.URL.Path
			}),
		)
	}
}
