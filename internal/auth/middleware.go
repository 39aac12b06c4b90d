package auth

import (
	"log/slog"
	"net/http"

	"github.com/supplylink/supplylink/internal/platform/httpx"
	"github.com/supplylink/supplylink/internal/shared"
)

// Middleware resolves bearer tokens into request actors and gates routes
// by role.
type Middleware struct {
	Tokens *TokenStore
	Logger *slog.Logger
}

// Authenticate attaches the actor for a valid token; requests without a
// resolvable actor pass through anonymously (role gates reject them later).
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		actor, err := m.Tokens.Lookup(r.Context(), token)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Warn("token lookup", slog.Any("error", err))
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithActor(r.Context(), actor)))
	})
}

// Require rejects requests whose actor does not hold one of the roles.
func (m Middleware) Require(roles ...shared.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := shared.ActorFromContext(r.Context())
			if actor == nil {
				httpx.RespondError(w, shared.ErrUnauthorized)
				return
			}
			for _, role := range roles {
				if actor.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			httpx.RespondError(w, shared.ErrForbidden)
		})
	}
}
