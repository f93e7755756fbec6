package middleware

import (
	"net/http"

	vetsession "github.com/MrEthical07/vetsession"
	"github.com/MrEthical07/vetsession/permission"
)

// RequireRole admits requests whose session holds at least one of roles. It must run
// behind [Guard]; a request without a session gets 401, one lacking every role gets 403.
func RequireRole(roles ...permission.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state, ok := vetsession.SessionFromContext(r.Context())
			if !ok || !state.Authenticated() {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			held := state.Roles()
			for _, role := range roles {
				if role.Known() && held.Contains(role.String()) {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "forbidden", http.StatusForbidden)
		})
	}
}

// RequirePathRole admits requests whose session holds the role owning the request path's
// prefix, such as Clinic for /clinic/... Paths outside every role prefix pass through.
func RequirePathRole() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state, ok := vetsession.SessionFromContext(r.Context())
			if !ok || !state.Authenticated() {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			res := permission.ResolveDetail(r.URL.Path, state.Roles())
			if res.Source == permission.SourcePath && !res.Held {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
