package middleware

import (
	"net/http"
)

// BodySizeLimit caps request bodies at maxBytes. Requests that declare a
// larger Content-Length get a 413 before the handler runs; bodies without
// a length fail with *http.MaxBytesError when read past the cap.
func BodySizeLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				// the unread body would otherwise be drained to reuse the connection
				w.Header().Set("Connection", "close")
				http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
