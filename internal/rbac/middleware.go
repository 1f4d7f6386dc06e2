package rbac

import "net/http"

var defaultChecker = NewChecker(nil)

func deny(w http.ResponseWriter) { http.Error(w, "forbidden", http.StatusForbidden) }

// Require enforces a single permission for the role in the request context.
func Require(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !defaultChecker.Has(RoleFromContext(r.Context()), perm) {
				deny(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAny passes when the role has at least one of perms.
func RequireAny(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !defaultChecker.Any(RoleFromContext(r.Context()), perms...) {
				deny(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
