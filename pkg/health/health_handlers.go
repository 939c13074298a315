package health

import (
	"encoding/json"
	"net/http"
)

// ReadinessHandler serves Readiness; anything but healthy is a 503
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return handler(c.Readiness, false)
}

// LivenessHandler serves Liveness; a degraded process is still alive
func (c *Checker) LivenessHandler() http.HandlerFunc {
	return handler(c.Liveness, true)
}

func handler(check func() Response, allowDegraded bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		response := check()
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")

		switch {
		case response.Status == StatusHealthy:
			w.WriteHeader(http.StatusOK)
		case response.Status == StatusDegraded && allowDegraded:
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		if r.Method == http.MethodGet {
			json.NewEncoder(w).Encode(response)
		}
	}
}
