package rbac

import (
	"encoding/json"
	"net/http"
)

// Default is the policy the middlewares enforce.
var Default = NewPolicy(nil)

func deny(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": http.StatusText(status)})
}

// guard admits requests whose role passes allow. A request without a role
// never went through authentication and gets 401.
func guard(allow func(role string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			switch {
			case role == "":
				deny(w, http.StatusUnauthorized)
			case !allow(role):
				deny(w, http.StatusForbidden)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func Require(perm string) func(http.Handler) http.Handler {
	return guard(func(role string) bool { return Default.Allows(role, perm) })
}

// RequireAny admits roles holding at least one of perms.
func RequireAny(perms ...string) func(http.Handler) http.Handler {
	return guard(func(role string) bool { return Default.AllowsAny(role, perms...) })
}

// Can reports whether the role in the request context holds perm.
func Can(r *http.Request, perm string) bool {
	role := RoleFromContext(r.Context())
	return role != "" && Default.Allows(role, perm)
}
