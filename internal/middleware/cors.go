package middleware

import (
	"net/http"
	"strings"
)

// CORS allows the configured frontend origin ("*" for any) and exposes the
// reply-source header to browser code.
func CORS(allowedOrigin string) func(http.Handler) http.Handler {
	allowedOrigin = strings.TrimRight(allowedOrigin, "/")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			h := w.Header()

			switch {
			case allowedOrigin == "" || allowedOrigin == "*":
				h.Set("Access-Control-Allow-Origin", "*")
			case origin == allowedOrigin:
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}

			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, X-HF-Key, X-Request-ID")
			h.Set("Access-Control-Expose-Headers", "X-Calmi-Source, X-Request-ID")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
