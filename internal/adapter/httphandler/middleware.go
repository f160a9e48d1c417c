package httphandler

import (
	"net/http"
	"strings"
)

// AllowMediaTypes rejects request bodies that are neither JSON nor
// multipart form data. Admin uploads come in as multipart, everything
// else (webhook included) as JSON.
func AllowMediaTypes(next http.Handler) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength == 0 {
			next.ServeHTTP(w, r)
			return
		}

		ct := r.Header.Get("Content-Type")
		switch {
		case strings.HasPrefix(ct, "application/json"):
		case strings.HasPrefix(ct, "multipart/form-data"):
		default:
			http.Error(w, "invalid media type", http.StatusUnsupportedMediaType)
			return
		}

		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(hf)
}
