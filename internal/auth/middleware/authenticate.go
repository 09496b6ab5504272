package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/NesmitC/project-webmath/internal/rbac"
)

// RoleLookup returns the authoritative role of a user id.
type RoleLookup interface {
	Role(ctx context.Context, id string) (string, error)
}

// Authenticator resolves the caller from a bearer token or, failing that, the
// session cookie. The stored role wins over the one carried by the token.
type Authenticator struct {
	Tokens   *AuthService
	Sessions *SessionStore
	Roles    RoleLookup
	Log      *zap.Logger
}

func (a *Authenticator) identify(r *http.Request) (sub, role string, ok bool) {
	if tok, has := bearerToken(r); has {
		c, err := a.Tokens.Parse(tok)
		if err != nil || c.Purpose != "" {
			return "", "", false
		}
		sub, role = c.Sub, c.Role
	} else if a.Sessions != nil {
		sub, role, ok = a.Sessions.Current(r)
		if !ok {
			return "", "", false
		}
	} else {
		return "", "", false
	}

	if a.Roles != nil {
		dbRole, err := a.Roles.Role(r.Context(), sub)
		if err != nil {
			// deleted users keep a valid token until expiry; refuse them
			if a.Log != nil {
				a.Log.Debug("role lookup failed", zap.String("sub", sub), zap.Error(err))
			}
			return "", "", false
		}
		role = dbRole
	}
	return sub, role, true
}

// Optional attaches the caller when one is present and never rejects.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sub, role, ok := a.identify(r); ok {
			ctx := rbac.WithRole(WithSubject(r.Context(), sub), role)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

// Required rejects anonymous callers with 401.
func (a *Authenticator) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub, role, ok := a.identify(r)
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
			return
		}
		ctx := rbac.WithRole(WithSubject(r.Context(), sub), role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
