package middleware

import (
	"net/http"

	"github.com/frahmantamala/filehub/internal"
	"github.com/frahmantamala/filehub/pkg/logger"
)

// UserContext tags the request logger with the signed-in principal, if any.
// It must run after the session middleware.
func UserContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := internal.PrincipalFromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		ctx := logger.With(r.Context(), "userID", p.ID, "username", p.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
