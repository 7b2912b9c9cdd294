package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/furu-identity/furu-identity/internal/platform/httpx"
	"github.com/furu-identity/furu-identity/internal/shared"
)

// RequireAuth enforces a Bearer access token and stores the subject user id
// in the request context.
func RequireAuth(codec *Codec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
				return
			}
			claims, err := codec.Parse(token, ClassAccess, time.Now())
			if err != nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", shared.ErrInvalidToken.Error())
				return
			}
			userID, err := claims.UserID()
			if err != nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", shared.ErrInvalidToken.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithUserID(r.Context(), userID)))
		})
	}
}
