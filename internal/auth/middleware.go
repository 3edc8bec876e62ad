package auth

import (
	"net/http"
	"strings"

	"github.com/atlas-claims/atlas-claims/internal/platform/httpx"
	"github.com/atlas-claims/atlas-claims/internal/shared"
)

// Middleware validates the Bearer token and stores the subject in the
// request context. Requests without a valid token get 401.
func Middleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}

			claims, err := ParseAccessToken(strings.TrimPrefix(header, "Bearer "), secret)
			if err != nil {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}

			ctx := shared.ContextWithSubject(r.Context(), SubjectFromClaims(claims))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
