package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kmuhangi/elimu-api/internal/platform/metrics"
)

// MetricsMiddleware records request count and duration per route. The
// chi route pattern is used as the path label so path parameters do not
// explode the label cardinality.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}

		metrics.ObserveHTTPRequest(
			r.Method,
			path,
			strconv.Itoa(ww.Status()),
			time.Since(start),
		)
	})
}
