package chi

import (
	"context"
	"net/http"

	"github.com/confbase/confbase/internal/domain"
)

type contextKey string

const identityKey contextKey = "identity"

// IdentityMiddleware resolves the Authorization header into a user identity
// and stores it in the request context. Requests without a valid token pass
// through anonymously; handlers that need a user enforce it themselves.
func IdentityMiddleware(verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			identity, err := verifier.VerifyHeader(header)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// identityFrom returns the identity stored by IdentityMiddleware.
func identityFrom(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(domain.Identity)
	return identity, ok
}
