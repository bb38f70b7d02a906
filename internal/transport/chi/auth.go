package chi

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kwsearch/internal/domain/access"
	"github.com/kailas-cloud/kwsearch/internal/logger"
	"github.com/kailas-cloud/kwsearch/internal/transport/api"
)

// Token maps a bearer token to a principal.
type Token struct {
	Token  string
	UserID string
	Staff  bool
}

type principalKey struct{}

// ContextWithPrincipal stores the caller in the context.
func ContextWithPrincipal(ctx context.Context, p access.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the caller, or the anonymous principal.
func PrincipalFromContext(ctx context.Context) access.Principal {
	if p, ok := ctx.Value(principalKey{}).(access.Principal); ok {
		return p
	}
	return access.Anonymous()
}

// PrincipalMiddleware resolves the Authorization header to a principal.
// Requests without the header run as anonymous; a malformed header or an
// unknown token is rejected with 401. exempt paths skip the check entirely.
func PrincipalMiddleware(tokens []Token, exempt ...string) func(http.Handler) http.Handler {
	known := make(map[string]access.Principal, len(tokens))
	for _, t := range tokens {
		if t.Token != "" && t.UserID != "" {
			known[t.Token] = access.Principal{UserID: t.UserID, Staff: t.Staff}
		}
	}
	exemptPaths := make(map[string]struct{}, len(exempt))
	for _, p := range exempt {
		exemptPaths[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				next.ServeHTTP(w, r)
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(auth, bearerPrefix) {
				writeError(w, http.StatusUnauthorized,
					api.ErrorResponseCodeUnauthorized, "authorization header must use Bearer scheme")
				return
			}

			p, ok := known[auth[len(bearerPrefix):]]
			if !ok {
				writeError(w, http.StatusUnauthorized, api.ErrorResponseCodeUnauthorized, "invalid token")
				return
			}

			noteCaller(r.Context(), p)
			ctx := ContextWithPrincipal(r.Context(), p)
			ctx = logger.ContextWithLogger(ctx, logger.FromContext(ctx).With(zap.String("user_id", p.UserID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
