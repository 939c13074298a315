// Package middleware holds the HTTP middleware of the storymap API server.
//
// Every middleware has the shape func(http.Handler) http.Handler and is
// applied outermost first:
//
//	handler := middleware.PanicRecovery(logger)(mux)
//	handler = middleware.Metrics(registry, route)(handler)
//	handler = middleware.Logging(logger)(handler)
//	handler = middleware.RequestID()(handler)
//
// The response writer wrappers forward http.Hijacker and http.Flusher so
// WebSocket upgrades pass through the chain.
package middleware
