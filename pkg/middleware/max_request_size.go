package middleware

import (
	"net/http"

	apperrors "tablebook/pkg/errors"
)

// MaxRequestSize caps request bodies at limit bytes. Declared oversize bodies are rejected up
// front; undeclared ones fail while the handler decodes them.
func MaxRequestSize(limit int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > int64(limit) {
				apperrors.WriteError(w, apperrors.New(
					apperrors.CodeTooLarge,
					"Request body too large",
					http.StatusRequestEntityTooLarge,
				))
				return
			}

			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, int64(limit))
			}
			next.ServeHTTP(w, r)
		})
	}
}
